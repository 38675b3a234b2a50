package signal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"peercall/native/internal/domain"

	"github.com/gorilla/websocket"
)

// recordingHandler forwards dispatched messages onto channels so tests can
// wait for them.
type recordingHandler struct {
	offers     chan domain.SDPPayload
	answers    chan domain.SDPPayload
	candidates chan domain.ICECandidatePayload
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		offers:     make(chan domain.SDPPayload, 4),
		answers:    make(chan domain.SDPPayload, 4),
		candidates: make(chan domain.ICECandidatePayload, 4),
	}
}

func (h *recordingHandler) OnRemoteOffer(offer domain.SDPPayload) { h.offers <- offer }
func (h *recordingHandler) OnRemoteAnswer(answer domain.SDPPayload) { h.answers <- answer }
func (h *recordingHandler) OnRemoteCandidate(c domain.ICECandidatePayload) { h.candidates <- c }

// startServer runs a WebSocket endpoint that hands the upgraded connection
// to serve. Returns the ws:// URL.
func startServer(t *testing.T, serve func(conn *websocket.Conn)) string {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		serve(conn)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestConnect_DialFailure(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/nothing-listens-here", "ABC123", newRecordingHandler(), 0)

	if err := c.Connect(); err == nil {
		t.Fatal("expected dial error")
	}
}

func TestSendOffer_WireFormat(t *testing.T) {
	received := make(chan []byte, 1)
	url := startServer(t, func(conn *websocket.Conn) {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- data
	})

	c := NewClient(url, "ABC123", newRecordingHandler(), 0)
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	c.SendOffer(domain.SDPPayload{Type: "offer", SDP: "v=0\r\noffer-sdp"})

	select {
	case data := <-received:
		var msg domain.SignalMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != domain.MessageOffer {
			t.Errorf("expected type %q, got %q", domain.MessageOffer, msg.Type)
		}
		if msg.RoomID != "ABC123" {
			t.Errorf("expected roomId ABC123, got %q", msg.RoomID)
		}
		if msg.Offer == nil || msg.Offer.SDP != "v=0\r\noffer-sdp" {
			t.Errorf("unexpected offer payload: %+v", msg.Offer)
		}
		if msg.Answer != nil || msg.Candidate != nil {
			t.Error("offer message must not carry answer or candidate payloads")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the offer on the wire")
	}
}

func TestDispatch_RoomFilter(t *testing.T) {
	handler := newRecordingHandler()

	url := startServer(t, func(conn *websocket.Conn) {
		// A message for another room, then one for ours.
		other, _ := json.Marshal(domain.SignalMessage{
			Type:   domain.MessageOffer,
			RoomID: "OTHER1",
			Offer:  &domain.SDPPayload{Type: "offer", SDP: "v=0\r\nwrong-room"},
		})
		conn.WriteMessage(websocket.TextMessage, other)

		ours, _ := json.Marshal(domain.SignalMessage{
			Type:   domain.MessageOffer,
			RoomID: "ABC123",
			Offer:  &domain.SDPPayload{Type: "offer", SDP: "v=0\r\nright-room"},
		})
		conn.WriteMessage(websocket.TextMessage, ours)

		// Keep the connection open until the client hangs up.
		conn.ReadMessage()
	})

	c := NewClient(url, "ABC123", handler, 0)
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	select {
	case offer := <-handler.offers:
		// Messages arrive in order; receiving the right-room offer first
		// proves the wrong-room one was dropped.
		if offer.SDP != "v=0\r\nright-room" {
			t.Fatalf("wrong-room message was dispatched: %q", offer.SDP)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatch")
	}

	select {
	case offer := <-handler.offers:
		t.Fatalf("unexpected second dispatch: %+v", offer)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatch_ByType(t *testing.T) {
	handler := newRecordingHandler()

	url := startServer(t, func(conn *websocket.Conn) {
		answer, _ := json.Marshal(domain.SignalMessage{
			Type:   domain.MessageAnswer,
			RoomID: "ABC123",
			Answer: &domain.SDPPayload{Type: "answer", SDP: "v=0\r\nanswer-sdp"},
		})
		conn.WriteMessage(websocket.TextMessage, answer)

		candidate, _ := json.Marshal(domain.SignalMessage{
			Type:      domain.MessageICECandidate,
			RoomID:    "ABC123",
			Candidate: &domain.ICECandidatePayload{Candidate: "candidate:123", SDPMid: "0", SDPMLineIndex: 0},
		})
		conn.WriteMessage(websocket.TextMessage, candidate)

		conn.ReadMessage()
	})

	c := NewClient(url, "ABC123", handler, 0)
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	select {
	case answer := <-handler.answers:
		if answer.SDP != "v=0\r\nanswer-sdp" {
			t.Errorf("unexpected answer SDP %q", answer.SDP)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for answer dispatch")
	}

	select {
	case cand := <-handler.candidates:
		if cand.Candidate != "candidate:123" {
			t.Errorf("unexpected candidate %q", cand.Candidate)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for candidate dispatch")
	}
}

func TestClose_Idempotent(t *testing.T) {
	url := startServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})

	c := NewClient(url, "ABC123", newRecordingHandler(), 0)
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}

	c.Close()
	c.Close()
}

func TestClose_BeforeConnect(t *testing.T) {
	c := NewClient("ws://example.invalid", "ABC123", newRecordingHandler(), 0)
	c.Close()
}

func TestSend_AfterClose(t *testing.T) {
	url := startServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})

	c := NewClient(url, "ABC123", newRecordingHandler(), 0)
	if err := c.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	c.Close()

	// Best-effort: a trailing candidate after teardown is dropped, not a panic.
	c.SendCandidate(domain.ICECandidatePayload{Candidate: "candidate:trailing"})
}

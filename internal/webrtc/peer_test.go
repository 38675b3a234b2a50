package webrtc

import (
	"strings"
	"testing"
	"time"

	"peercall/native/internal/domain"
	"peercall/native/internal/media"

	pion "github.com/pion/webrtc/v4"
)

func newTestPeer(t *testing.T) *Peer {
	t.Helper()

	f := &Factory{ICEServers: []string{"stun:stun.l.google.com:19302"}}
	p, err := f.NewPeer(media.NewStream())
	if err != nil {
		t.Fatalf("NewPeer: %v", err)
	}
	t.Cleanup(p.Close)
	return p.(*Peer)
}

func TestCreateOffer_SetsLocalDescription(t *testing.T) {
	p := newTestPeer(t)

	offer, err := p.CreateOffer()
	if err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}
	if offer.Type != "offer" {
		t.Errorf("expected offer type, got %q", offer.Type)
	}
	if !strings.HasPrefix(offer.SDP, "v=0") {
		t.Errorf("expected SDP payload, got %q", offer.SDP)
	}
	if p.pc.LocalDescription() == nil {
		t.Error("local description must be set before the offer is sent")
	}
}

func TestOfferAnswer_Exchange(t *testing.T) {
	caller := newTestPeer(t)
	callee := newTestPeer(t)

	offer, err := caller.CreateOffer()
	if err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}

	answer, err := callee.AcceptOffer(offer)
	if err != nil {
		t.Fatalf("AcceptOffer: %v", err)
	}
	if answer.Type != "answer" || !strings.HasPrefix(answer.SDP, "v=0") {
		t.Fatalf("unexpected answer payload: %+v", answer)
	}

	if err := caller.AcceptAnswer(answer); err != nil {
		t.Fatalf("AcceptAnswer: %v", err)
	}
}

func TestAcceptAnswer_WithoutOffer(t *testing.T) {
	p := newTestPeer(t)

	err := p.AcceptAnswer(domain.SDPPayload{Type: "answer", SDP: "v=0\r\n"})
	if err == nil {
		t.Fatal("expected an error applying an answer before any offer")
	}
}

func TestAddRemoteCandidate_WaitsForRemoteDescription(t *testing.T) {
	caller := newTestPeer(t)
	callee := newTestPeer(t)

	offer, err := caller.CreateOffer()
	if err != nil {
		t.Fatalf("CreateOffer: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- caller.AddRemoteCandidate(domain.ICECandidatePayload{
			Candidate:     "candidate:1 1 udp 2130706431 192.0.2.10 54321 typ host",
			SDPMid:        "0",
			SDPMLineIndex: 0,
		})
	}()

	select {
	case err := <-done:
		t.Fatalf("candidate applied before the remote description was set: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	answer, err := callee.AcceptOffer(offer)
	if err != nil {
		t.Fatalf("AcceptOffer: %v", err)
	}
	if err := caller.AcceptAnswer(answer); err != nil {
		t.Fatalf("AcceptAnswer: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("AddRemoteCandidate: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("candidate was not applied after the remote description was set")
	}
}

func TestAddRemoteCandidate_UnblocksOnClose(t *testing.T) {
	p := newTestPeer(t)

	done := make(chan error, 1)
	go func() {
		done <- p.AddRemoteCandidate(domain.ICECandidatePayload{
			Candidate:     "candidate:1 1 udp 2130706431 192.0.2.10 54321 typ host",
			SDPMid:        "0",
			SDPMLineIndex: 0,
		})
	}()

	select {
	case err := <-done:
		t.Fatalf("candidate applied without a remote description: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	p.Close()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error for a candidate pending at close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("AddRemoteCandidate still blocked after Close")
	}
}

func TestConnectionStateMapping(t *testing.T) {
	p := newTestPeer(t)

	var got []domain.Status
	p.SetOnStateChange(func(s domain.Status) { got = append(got, s) })

	for _, state := range []pion.PeerConnectionState{
		pion.PeerConnectionStateNew, // ignored
		pion.PeerConnectionStateConnecting,
		pion.PeerConnectionStateConnected,
		pion.PeerConnectionStateDisconnected,
		pion.PeerConnectionStateFailed,
		pion.PeerConnectionStateClosed, // ignored
	} {
		p.handleConnectionState(state)
	}

	want := []domain.Status{
		domain.StatusConnecting,
		domain.StatusConnected,
		domain.StatusFailed,
		domain.StatusFailed,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d mapped states, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("state %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestEndOfCandidates_NotForwarded(t *testing.T) {
	p := newTestPeer(t)

	forwarded := 0
	p.SetOnICECandidate(func(domain.ICECandidatePayload) { forwarded++ })

	p.handleICECandidate(nil)

	if forwarded != 0 {
		t.Error("end-of-candidates must not be forwarded as a message")
	}
}

func TestClose_Idempotent(t *testing.T) {
	p := newTestPeer(t)

	p.Close()
	p.Close()
}

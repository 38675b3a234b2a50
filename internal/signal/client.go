package signal

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"peercall/native/internal/domain"

	"github.com/gorilla/websocket"
)

// Client manages the WebSocket connection used for offer/answer/candidate
// exchange within a single room. One Client exists per call session.
type Client struct {
	endpoint     string
	roomID       string
	handler      domain.Handler
	pingInterval time.Duration

	conn *websocket.Conn

	mu        sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

// NewClient creates a signaling client scoped to roomID. Messages addressed
// to other rooms are dropped before reaching the handler.
func NewClient(endpoint, roomID string, handler domain.Handler, pingInterval time.Duration) *Client {
	return &Client{
		endpoint:     endpoint,
		roomID:       roomID,
		handler:      handler,
		pingInterval: pingInterval,
		closed:       make(chan struct{}),
	}
}

// Connect dials the signaling WebSocket and starts the read loop. A dial
// failure is fatal to the call attempt: no offer/answer can be exchanged
// without the channel.
func (c *Client) Connect() error {
	log.Printf("[signal] connecting to %s (room %s)", c.endpoint, c.roomID)

	conn, _, err := websocket.DefaultDialer.Dial(c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	c.conn = conn

	go c.readLoop()
	if c.pingInterval > 0 {
		go c.pingLoop()
	}

	return nil
}

// Close shuts down the WebSocket connection. Safe to call more than once and
// before Connect.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

// SendOffer transmits a local SDP offer to the room.
func (c *Client) SendOffer(offer domain.SDPPayload) {
	c.sendJSON(domain.SignalMessage{
		Type:   domain.MessageOffer,
		RoomID: c.roomID,
		Offer:  &offer,
	})
}

// SendAnswer transmits a local SDP answer to the room.
func (c *Client) SendAnswer(answer domain.SDPPayload) {
	c.sendJSON(domain.SignalMessage{
		Type:   domain.MessageAnswer,
		RoomID: c.roomID,
		Answer: &answer,
	})
}

// SendCandidate transmits a locally gathered ICE candidate to the room.
// Best-effort: a candidate that races teardown is logged and dropped.
func (c *Client) SendCandidate(candidate domain.ICECandidatePayload) {
	c.sendJSON(domain.SignalMessage{
		Type:      domain.MessageICECandidate,
		RoomID:    c.roomID,
		Candidate: &candidate,
	})
}

func (c *Client) sendJSON(msg domain.SignalMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.closed:
		return
	default:
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[signal] marshal error: %v", err)
		return
	}
	log.Printf("[signal] >>> %s", string(data))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[signal] write error: %v", err)
	}
}

func (c *Client) readLoop() {
	defer c.Close()

	for {
		select {
		case <-c.closed:
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
				return
			default:
				log.Printf("[signal] read error: %v", err)
				return
			}
		}

		log.Printf("[signal] <<< %s", string(data))

		var msg domain.SignalMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("[signal] unmarshal error: %v", err)
			continue
		}

		c.dispatch(msg)
	}
}

// dispatch applies the room filter and routes by message type. Messages for
// other rooms are dropped silently.
func (c *Client) dispatch(msg domain.SignalMessage) {
	if msg.RoomID != c.roomID {
		return
	}

	switch msg.Type {
	case domain.MessageOffer:
		if msg.Offer == nil {
			log.Printf("[signal] offer message without offer payload")
			return
		}
		c.handler.OnRemoteOffer(*msg.Offer)

	case domain.MessageAnswer:
		if msg.Answer == nil {
			log.Printf("[signal] answer message without answer payload")
			return
		}
		c.handler.OnRemoteAnswer(*msg.Answer)

	case domain.MessageICECandidate:
		if msg.Candidate == nil {
			log.Printf("[signal] ice-candidate message without candidate payload")
			return
		}
		c.handler.OnRemoteCandidate(*msg.Candidate)

	default:
		log.Printf("[signal] unhandled message type: %s", msg.Type)
	}
}

// pingLoop keeps the transport alive with WebSocket control pings. This is
// below the signaling protocol, which itself has no heartbeat.
func (c *Client) pingLoop() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			c.mu.Lock()
			err := c.conn.WriteControl(
				websocket.PingMessage,
				[]byte{},
				time.Now().Add(5*time.Second),
			)
			c.mu.Unlock()
			if err != nil {
				select {
				case <-c.closed:
					return
				default:
					log.Printf("[signal] ping error: %v", err)
					return
				}
			}
		}
	}
}

// Factory builds one Client per call session.
type Factory struct {
	Endpoint     string
	PingInterval time.Duration
}

// NewSignaler implements domain.SignalerFactory.
func (f *Factory) NewSignaler(roomID string, handler domain.Handler) domain.Signaler {
	return NewClient(f.Endpoint, roomID, handler, f.PingInterval)
}

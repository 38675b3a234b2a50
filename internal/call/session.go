package call

import (
	"fmt"
	"log"
	"sync"

	"peercall/native/internal/domain"
)

// Session is the call state machine: it owns the room id, the local stream,
// the peer connection and the signaling channel of one call attempt, and is
// the single place all of them report into. It implements domain.Handler
// for incoming signaling messages.
//
// At most one call is active per Session; starting another while one is in
// progress is rejected. A Session is reusable across sequential calls.
type Session struct {
	media   domain.MediaSource
	peers   domain.PeerFactory
	signals domain.SignalerFactory
	notify  domain.Notifier

	mu            sync.Mutex
	active        bool
	roomID        string
	stream        domain.LocalStream
	peer          domain.Peer
	signal        domain.Signaler
	status        domain.Status
	remotePresent bool
}

// NewSession wires the session to its collaborators. notify must be non-nil.
func NewSession(media domain.MediaSource, peers domain.PeerFactory, signals domain.SignalerFactory, notify domain.Notifier) *Session {
	return &Session{
		media:   media,
		peers:   peers,
		signals: signals,
		notify:  notify,
		status:  domain.StatusDisconnected,
	}
}

// StartCall acquires media, builds the peer connection, opens signaling and
// sends the offer, strictly in that order. Any failure after media
// acquisition releases everything acquired so far; the camera and
// microphone are never leaked.
func (s *Session) StartCall(roomID string) error {
	roomID = domain.NormalizeRoomID(roomID)
	if roomID == "" {
		s.notify.Notify("Room ID Required", "Enter a room id to start the call.")
		return domain.ErrRoomIDRequired
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return domain.ErrCallInProgress
	}
	s.active = true
	s.roomID = roomID
	s.status = domain.StatusConnecting
	s.mu.Unlock()

	stream, err := s.media.Acquire()
	if err != nil {
		s.notify.Notify("Camera Access Denied", "Allow camera and microphone access to make video calls.")
		s.mu.Lock()
		s.active = false
		s.roomID = ""
		s.status = domain.StatusDisconnected
		s.mu.Unlock()
		return fmt.Errorf("acquire media: %w", err)
	}
	s.mu.Lock()
	s.stream = stream
	s.mu.Unlock()

	peer, err := s.peers.NewPeer(stream)
	if err != nil {
		s.abortStart()
		return fmt.Errorf("create peer: %w", err)
	}
	peer.SetOnICECandidate(s.handleLocalCandidate)
	peer.SetOnRemoteTrack(s.handleRemoteTrack)
	peer.SetOnStateChange(s.handleStateChange)
	s.mu.Lock()
	s.peer = peer
	s.mu.Unlock()

	sig := s.signals.NewSignaler(roomID, s)
	if err := sig.Connect(); err != nil {
		s.abortStart()
		return fmt.Errorf("signal connect: %w", err)
	}
	s.mu.Lock()
	s.signal = sig
	s.mu.Unlock()

	offer, err := peer.CreateOffer()
	if err != nil {
		s.abortStart()
		return fmt.Errorf("create offer: %w", err)
	}
	sig.SendOffer(offer)

	s.notify.Notify("Call Started", "Waiting for the other participant to join...")
	return nil
}

// abortStart tears down a partially started call and marks it failed.
func (s *Session) abortStart() {
	s.teardown()
	s.mu.Lock()
	s.status = domain.StatusFailed
	s.mu.Unlock()
}

// EndCall releases the local media, closes the peer connection and the
// signaling channel, and resets the public state. Callable from any state;
// already-released resources make it a no-op.
func (s *Session) EndCall() {
	s.teardown()
	s.notify.Notify("Call Ended", "The video call has been terminated.")
}

func (s *Session) teardown() {
	s.mu.Lock()
	stream, peer, sig := s.stream, s.peer, s.signal
	s.stream, s.peer, s.signal = nil, nil, nil
	s.active = false
	s.roomID = ""
	s.status = domain.StatusDisconnected
	s.remotePresent = false
	s.mu.Unlock()

	if stream != nil {
		if err := stream.Close(); err != nil {
			log.Printf("[call] release media: %v", err)
		}
	}
	if peer != nil {
		peer.Close()
	}
	if sig != nil {
		sig.Close()
	}
}

// ToggleVideo flips the local video mute flag and returns the resulting
// state. No-op returning false when no call is active.
func (s *Session) ToggleVideo() bool {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()
	if stream == nil {
		return false
	}
	return stream.SetVideoEnabled(!stream.VideoEnabled())
}

// ToggleAudio flips the local audio mute flag and returns the resulting
// state. No-op returning false when no call is active.
func (s *Session) ToggleAudio() bool {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()
	if stream == nil {
		return false
	}
	return stream.SetAudioEnabled(!stream.AudioEnabled())
}

// Status reports the caller-facing connection state.
func (s *Session) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// RemotePresent reports whether remote media has arrived.
func (s *Session) RemotePresent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remotePresent
}

// RoomID returns the active room id, empty when no call is active.
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// OnRemoteOffer answers an incoming offer for the session's room.
func (s *Session) OnRemoteOffer(offer domain.SDPPayload) {
	s.mu.Lock()
	peer, sig := s.peer, s.signal
	s.mu.Unlock()
	if peer == nil || sig == nil {
		return
	}

	answer, err := peer.AcceptOffer(offer)
	if err != nil {
		log.Printf("[call] accept offer: %v", err)
		s.failCall("Could not answer the incoming call.")
		return
	}
	sig.SendAnswer(answer)
}

// OnRemoteAnswer applies the peer's answer to our offer.
func (s *Session) OnRemoteAnswer(answer domain.SDPPayload) {
	s.mu.Lock()
	peer := s.peer
	s.mu.Unlock()
	if peer == nil {
		return
	}

	if err := peer.AcceptAnswer(answer); err != nil {
		log.Printf("[call] accept answer: %v", err)
		s.failCall("Call negotiation failed.")
	}
}

// OnRemoteCandidate adds a remote ICE candidate. Runs on its own goroutine
// because candidates arriving before the remote description block until it
// is set.
func (s *Session) OnRemoteCandidate(candidate domain.ICECandidatePayload) {
	s.mu.Lock()
	peer := s.peer
	s.mu.Unlock()
	if peer == nil {
		return
	}

	go func() {
		if err := peer.AddRemoteCandidate(candidate); err != nil {
			log.Printf("[call] add remote ICE candidate: %v", err)
		}
	}()
}

// failCall tears the call down after a negotiation failure and reports it.
func (s *Session) failCall(detail string) {
	s.teardown()
	s.mu.Lock()
	s.status = domain.StatusFailed
	s.mu.Unlock()
	s.notify.Notify("Call Failed", detail)
}

func (s *Session) handleLocalCandidate(candidate domain.ICECandidatePayload) {
	s.mu.Lock()
	sig := s.signal
	s.mu.Unlock()
	if sig == nil {
		// Trailing candidate after teardown; best-effort, drop it.
		return
	}
	sig.SendCandidate(candidate)
}

func (s *Session) handleRemoteTrack(track domain.RemoteTrack) {
	log.Printf("[call] remote media arrived: kind=%s codec=%s", track.Kind, track.Codec)
	s.mu.Lock()
	s.remotePresent = true
	s.mu.Unlock()
	s.notify.Notify("Participant Joined", "The other participant is connected.")
}

func (s *Session) handleStateChange(status domain.Status) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.status = status
	if status == domain.StatusFailed {
		s.remotePresent = false
	}
	s.mu.Unlock()

	if status == domain.StatusFailed {
		s.notify.Notify("Connection Failed", "The call connection was lost. Start the call again to retry.")
	}
}

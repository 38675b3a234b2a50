package domain

// MediaSource acquires the local camera and microphone for one call session.
type MediaSource interface {
	Acquire() (LocalStream, error)
}

// LocalStream is the local capture owned by one call session. The enabled
// flag is the mute mechanism: tracks stay attached to the peer connection,
// only whether they carry media changes.
type LocalStream interface {
	SetVideoEnabled(enabled bool) bool
	SetAudioEnabled(enabled bool) bool
	VideoEnabled() bool
	AudioEnabled() bool
	Close() error
}

// RemoteTrack describes remote media that started arriving.
type RemoteTrack struct {
	Kind     string
	StreamID string
	Codec    string
}

// Peer manages the WebRTC peer connection for one call session.
type Peer interface {
	SetOnICECandidate(fn func(ICECandidatePayload))
	SetOnRemoteTrack(fn func(RemoteTrack))
	SetOnStateChange(fn func(Status))
	CreateOffer() (SDPPayload, error)
	AcceptOffer(offer SDPPayload) (SDPPayload, error)
	AcceptAnswer(answer SDPPayload) error
	AddRemoteCandidate(candidate ICECandidatePayload) error
	Close()
}

// PeerFactory builds one peer connection per call session with the session's
// local media already attached.
type PeerFactory interface {
	NewPeer(stream LocalStream) (Peer, error)
}

// Signaler manages the signaling channel for one room.
type Signaler interface {
	Connect() error
	SendOffer(offer SDPPayload)
	SendAnswer(answer SDPPayload)
	SendCandidate(candidate ICECandidatePayload)
	Close()
}

// SignalerFactory opens one signaling channel per call session. The handler
// receives only messages addressed to roomID.
type SignalerFactory interface {
	NewSignaler(roomID string, handler Handler) Signaler
}

// Handler receives signaling messages for the session's room.
type Handler interface {
	OnRemoteOffer(offer SDPPayload)
	OnRemoteAnswer(answer SDPPayload)
	OnRemoteCandidate(candidate ICECandidatePayload)
}

// Notifier surfaces user-visible notifications.
type Notifier interface {
	Notify(title, detail string)
}

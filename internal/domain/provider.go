package domain

// ProviderConfig configures the external call provider for one user.
type ProviderConfig struct {
	AppID       string
	Env         string // "eval" or "real"
	UserID      string
	ServiceID   string
	AccessToken string
}

// MediaType selects audio-only or audio+video calls on the provider.
type MediaType string

const (
	MediaTypeAudio MediaType = "audio"
	MediaTypeVideo MediaType = "video"
)

// MakeCallParams are the caller-side parameters for a provider call.
type MakeCallParams struct {
	MyID              string
	MyServiceID       string
	PeerID            string
	PeerServiceID     string
	AccessToken       string
	MediaType         MediaType
	EnableDataChannel bool
	UserData          string
	UseCloudRecording bool
	UseCloudRelaying  bool
}

// VerifyCallParams are the callee-side parameters for responding to an
// incoming provider call.
type VerifyCallParams struct {
	MakeCallParams
	CCParam string
}

// ProviderEvents receives asynchronous call events from the provider. Each
// event is delivered at most once per underlying occurrence.
type ProviderEvents interface {
	OnWaitConnected()
	OnConnected()
	OnDisconnected(reason string)
	OnVerified()
	OnPeerConnected(peerID string)
	OnPeerDisconnected(peerID, reason string)
	OnError(err error)
}

// CallProvider is the externally supplied calling SDK. Implementations are
// opaque; only this contract is depended on.
type CallProvider interface {
	Initialize(cfg ProviderConfig) error
	MakeCall(params MakeCallParams, events ProviderEvents) error
	VerifyCall(params VerifyCallParams, events ProviderEvents) error
	AcceptCall() error
	EndCall() error
	SetAudioMuted(muted bool) error
	SetVideoPaused(paused bool) error
	StartScreenShare() error
	StopScreenShare() error
}

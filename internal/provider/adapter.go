package provider

import (
	"fmt"
	"log"
	"sync"

	"peercall/native/internal/domain"
)

// State is the observable state of a provider-backed call.
type State string

const (
	StateIdle         State = "idle"
	StateWaiting      State = "waiting"
	StateVerified     State = "verified"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
	StateFailed       State = "failed"
)

// Adapter owns the observable state of one provider-backed call and
// translates the provider's asynchronous events into state transitions and
// user notifications. It implements domain.ProviderEvents; all event entry
// points are safe to call from any goroutine.
type Adapter struct {
	provider domain.CallProvider
	notify   domain.Notifier

	mu            sync.Mutex
	initialized   bool
	cfg           domain.ProviderConfig
	state         State
	inCall        bool
	audioMuted    bool
	videoPaused   bool
	screenSharing bool
}

// NewAdapter wraps an external call provider.
func NewAdapter(p domain.CallProvider, notify domain.Notifier) *Adapter {
	return &Adapter{provider: p, notify: notify, state: StateIdle}
}

// Initialize prepares the provider for one user. Must precede any call
// operation.
func (a *Adapter) Initialize(cfg domain.ProviderConfig) error {
	if err := a.provider.Initialize(cfg); err != nil {
		return fmt.Errorf("initialize provider: %w", err)
	}

	a.mu.Lock()
	a.initialized = true
	a.cfg = cfg
	a.mu.Unlock()
	return nil
}

// MakeCall places an outgoing call to peerID.
func (a *Adapter) MakeCall(peerID string, mediaType domain.MediaType, userData string) error {
	a.mu.Lock()
	if !a.initialized {
		a.mu.Unlock()
		return domain.ErrNotInitialized
	}
	cfg := a.cfg
	a.mu.Unlock()

	params := domain.MakeCallParams{
		MyID:          cfg.UserID,
		MyServiceID:   cfg.ServiceID,
		PeerID:        peerID,
		PeerServiceID: cfg.ServiceID,
		AccessToken:   cfg.AccessToken,
		MediaType:     mediaType,
		UserData:      userData,
	}
	if err := a.provider.MakeCall(params, a); err != nil {
		return fmt.Errorf("make call: %w", err)
	}

	a.mu.Lock()
	a.inCall = true
	a.state = StateWaiting
	a.mu.Unlock()
	return nil
}

// VerifyCall responds to an incoming call from peerID; the call is not
// connected until AcceptCall.
func (a *Adapter) VerifyCall(peerID, ccParam string, mediaType domain.MediaType) error {
	a.mu.Lock()
	if !a.initialized {
		a.mu.Unlock()
		return domain.ErrNotInitialized
	}
	cfg := a.cfg
	a.mu.Unlock()

	params := domain.VerifyCallParams{
		MakeCallParams: domain.MakeCallParams{
			MyID:          cfg.UserID,
			MyServiceID:   cfg.ServiceID,
			PeerID:        peerID,
			PeerServiceID: cfg.ServiceID,
			AccessToken:   cfg.AccessToken,
			MediaType:     mediaType,
		},
		CCParam: ccParam,
	}
	if err := a.provider.VerifyCall(params, a); err != nil {
		return fmt.Errorf("verify call: %w", err)
	}
	return nil
}

// AcceptCall answers a verified incoming call.
func (a *Adapter) AcceptCall() error {
	a.mu.Lock()
	if !a.initialized {
		a.mu.Unlock()
		return domain.ErrNotInitialized
	}
	a.mu.Unlock()

	if err := a.provider.AcceptCall(); err != nil {
		return fmt.Errorf("accept call: %w", err)
	}

	a.mu.Lock()
	a.inCall = true
	a.mu.Unlock()
	return nil
}

// EndCall hangs up and resets the call flags. Safe without an active call.
func (a *Adapter) EndCall() error {
	a.mu.Lock()
	if !a.initialized {
		a.mu.Unlock()
		return domain.ErrNotInitialized
	}
	a.mu.Unlock()

	if err := a.provider.EndCall(); err != nil {
		return fmt.Errorf("end call: %w", err)
	}

	a.mu.Lock()
	a.inCall = false
	a.audioMuted = false
	a.videoPaused = false
	a.screenSharing = false
	a.state = StateDisconnected
	a.mu.Unlock()
	return nil
}

// ToggleAudio flips the microphone mute and returns whether audio is muted.
func (a *Adapter) ToggleAudio() (bool, error) {
	a.mu.Lock()
	next := !a.audioMuted
	a.mu.Unlock()

	if err := a.provider.SetAudioMuted(next); err != nil {
		return !next, fmt.Errorf("set audio muted: %w", err)
	}

	a.mu.Lock()
	a.audioMuted = next
	a.mu.Unlock()
	return next, nil
}

// ToggleVideo flips the camera pause and returns whether video is paused.
func (a *Adapter) ToggleVideo() (bool, error) {
	a.mu.Lock()
	next := !a.videoPaused
	a.mu.Unlock()

	if err := a.provider.SetVideoPaused(next); err != nil {
		return !next, fmt.Errorf("set video paused: %w", err)
	}

	a.mu.Lock()
	a.videoPaused = next
	a.mu.Unlock()
	return next, nil
}

// StartScreenShare begins sharing the screen on the active call.
func (a *Adapter) StartScreenShare() error {
	if err := a.provider.StartScreenShare(); err != nil {
		return fmt.Errorf("start screen share: %w", err)
	}
	a.mu.Lock()
	a.screenSharing = true
	a.mu.Unlock()
	return nil
}

// StopScreenShare ends screen sharing.
func (a *Adapter) StopScreenShare() error {
	if err := a.provider.StopScreenShare(); err != nil {
		return fmt.Errorf("stop screen share: %w", err)
	}
	a.mu.Lock()
	a.screenSharing = false
	a.mu.Unlock()
	return nil
}

// State reports the current call state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// InCall reports whether a call is active.
func (a *Adapter) InCall() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inCall
}

// AudioMuted reports the microphone mute flag.
func (a *Adapter) AudioMuted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.audioMuted
}

// VideoPaused reports the camera pause flag.
func (a *Adapter) VideoPaused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.videoPaused
}

// ScreenSharing reports the screen-share flag.
func (a *Adapter) ScreenSharing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screenSharing
}

// OnWaitConnected implements domain.ProviderEvents.
func (a *Adapter) OnWaitConnected() {
	a.mu.Lock()
	a.state = StateWaiting
	a.mu.Unlock()
	a.notify.Notify("Waiting for connection", "Waiting for the other person to join...")
}

// OnConnected implements domain.ProviderEvents.
func (a *Adapter) OnConnected() {
	a.mu.Lock()
	a.state = StateConnected
	a.inCall = true
	a.mu.Unlock()
	a.notify.Notify("Connected", "Call connected successfully.")
}

// OnDisconnected implements domain.ProviderEvents.
func (a *Adapter) OnDisconnected(reason string) {
	a.mu.Lock()
	a.state = StateDisconnected
	a.inCall = false
	a.audioMuted = false
	a.videoPaused = false
	a.screenSharing = false
	a.mu.Unlock()
	a.notify.Notify("Call Ended", reason)
}

// OnVerified implements domain.ProviderEvents.
func (a *Adapter) OnVerified() {
	a.mu.Lock()
	a.state = StateVerified
	a.mu.Unlock()
	a.notify.Notify("Incoming Call", "Call verified, ready to accept.")
}

// OnPeerConnected implements domain.ProviderEvents.
func (a *Adapter) OnPeerConnected(peerID string) {
	log.Printf("[provider] peer connected: %s", peerID)
}

// OnPeerDisconnected implements domain.ProviderEvents.
func (a *Adapter) OnPeerDisconnected(peerID, reason string) {
	log.Printf("[provider] peer disconnected: %s (%s)", peerID, reason)
}

// OnError implements domain.ProviderEvents.
func (a *Adapter) OnError(err error) {
	a.mu.Lock()
	a.state = StateFailed
	a.inCall = false
	a.mu.Unlock()
	a.notify.Notify("Call Error", err.Error())
}

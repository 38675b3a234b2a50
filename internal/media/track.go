package media

import (
	"log"
	"sync"

	pion "github.com/pion/webrtc/v4"
)

// Track wraps one local capture track with its mute flag and, once attached
// to a peer connection, the RTP sender carrying it. The track is never
// removed from the connection while muted; only whether it carries media
// changes.
type Track struct {
	kind  pion.RTPCodecType
	local pion.TrackLocal
	stop  func() error

	mu      sync.Mutex
	sender  *pion.RTPSender
	enabled bool
	stopped bool
}

// NewTrack wraps a local track. stop halts the underlying capture and may be
// nil for tracks without a device behind them.
func NewTrack(kind pion.RTPCodecType, local pion.TrackLocal, stop func() error) *Track {
	return &Track{kind: kind, local: local, stop: stop, enabled: true}
}

func (t *Track) Kind() pion.RTPCodecType { return t.kind }

// Local returns the track as attached to the peer connection.
func (t *Track) Local() pion.TrackLocal { return t.local }

// Bind records the RTP sender created when the track was added to a peer
// connection, so enable/disable can swap the track in and out of the sender.
func (t *Track) Bind(sender *pion.RTPSender) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sender = sender
}

// SetEnabled flips the mute flag and returns the resulting state. A disabled
// track stays negotiated but its sender carries no media.
func (t *Track) SetEnabled(enabled bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped || t.enabled == enabled {
		return t.enabled
	}

	if t.sender != nil {
		var next pion.TrackLocal
		if enabled {
			next = t.local
		}
		if err := t.sender.ReplaceTrack(next); err != nil {
			log.Printf("[media] replace track: %v", err)
			return t.enabled
		}
	}

	t.enabled = enabled
	return t.enabled
}

// Enabled reports the current mute flag.
func (t *Track) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// Stop halts the underlying capture. Idempotent.
func (t *Track) Stop() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.stopped = true
	t.enabled = false
	stop := t.stop
	t.mu.Unlock()

	if stop != nil {
		return stop()
	}
	return nil
}

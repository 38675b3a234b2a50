package media

import (
	"sync"

	pion "github.com/pion/webrtc/v4"
)

// Stream is the camera+microphone capture owned by one call session. It
// holds at most one video and one audio track; either may be absent on hosts
// without the matching device.
type Stream struct {
	video *Track
	audio *Track

	mu     sync.Mutex
	closed bool
}

// NewStream builds a stream from capture tracks, keeping the first track of
// each kind.
func NewStream(tracks ...*Track) *Stream {
	s := &Stream{}
	for _, t := range tracks {
		switch t.Kind() {
		case pion.RTPCodecTypeVideo:
			if s.video == nil {
				s.video = t
			}
		case pion.RTPCodecTypeAudio:
			if s.audio == nil {
				s.audio = t
			}
		}
	}
	return s
}

// Tracks returns the stream's tracks for attachment to a peer connection.
func (s *Stream) Tracks() []*Track {
	var tracks []*Track
	if s.video != nil {
		tracks = append(tracks, s.video)
	}
	if s.audio != nil {
		tracks = append(tracks, s.audio)
	}
	return tracks
}

// SetVideoEnabled flips the video mute flag and returns the resulting state.
// No-op returning false when the stream has no video track.
func (s *Stream) SetVideoEnabled(enabled bool) bool {
	if s.video == nil {
		return false
	}
	return s.video.SetEnabled(enabled)
}

// SetAudioEnabled flips the audio mute flag and returns the resulting state.
// No-op returning false when the stream has no audio track.
func (s *Stream) SetAudioEnabled(enabled bool) bool {
	if s.audio == nil {
		return false
	}
	return s.audio.SetEnabled(enabled)
}

// VideoEnabled reports whether the video track exists and is unmuted.
func (s *Stream) VideoEnabled() bool {
	return s.video != nil && s.video.Enabled()
}

// AudioEnabled reports whether the audio track exists and is unmuted.
func (s *Stream) AudioEnabled() bool {
	return s.audio != nil && s.audio.Enabled()
}

// Close stops every track. Idempotent and safe on a trackless stream.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var firstErr error
	for _, t := range s.Tracks() {
		if err := t.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

package media

import (
	"testing"

	pion "github.com/pion/webrtc/v4"
)

func newTestTrack(kind pion.RTPCodecType, stops *int) *Track {
	return NewTrack(kind, nil, func() error {
		*stops++
		return nil
	})
}

func TestSetEnabled_Involution(t *testing.T) {
	var stops int
	video := newTestTrack(pion.RTPCodecTypeVideo, &stops)
	s := NewStream(video)

	if !s.VideoEnabled() {
		t.Fatal("tracks must start enabled")
	}

	s.SetVideoEnabled(!s.VideoEnabled())
	if s.VideoEnabled() {
		t.Fatal("expected video disabled after toggle")
	}

	s.SetVideoEnabled(!s.VideoEnabled())
	if !s.VideoEnabled() {
		t.Fatal("expected video enabled after second toggle")
	}
}

func TestSetEnabled_ReturnsResultingState(t *testing.T) {
	var stops int
	audio := newTestTrack(pion.RTPCodecTypeAudio, &stops)
	s := NewStream(audio)

	if got := s.SetAudioEnabled(false); got != false {
		t.Errorf("expected false, got %t", got)
	}
	if got := s.SetAudioEnabled(true); got != true {
		t.Errorf("expected true, got %t", got)
	}
}

func TestSetEnabled_MissingTrack(t *testing.T) {
	var stops int
	s := NewStream(newTestTrack(pion.RTPCodecTypeAudio, &stops))

	// No video track: a no-op that reports false rather than an error.
	if got := s.SetVideoEnabled(true); got != false {
		t.Errorf("expected false for a missing track, got %t", got)
	}
	if s.VideoEnabled() {
		t.Error("missing track must never report enabled")
	}
}

func TestStream_KeepsFirstTrackPerKind(t *testing.T) {
	var stops int
	first := newTestTrack(pion.RTPCodecTypeVideo, &stops)
	second := newTestTrack(pion.RTPCodecTypeVideo, &stops)
	s := NewStream(first, second)

	tracks := s.Tracks()
	if len(tracks) != 1 || tracks[0] != first {
		t.Fatalf("expected only the first video track, got %d tracks", len(tracks))
	}
}

func TestClose_StopsEveryTrackOnce(t *testing.T) {
	var stops int
	s := NewStream(
		newTestTrack(pion.RTPCodecTypeVideo, &stops),
		newTestTrack(pion.RTPCodecTypeAudio, &stops),
	)

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if stops != 2 {
		t.Errorf("expected each track stopped exactly once, got %d stops", stops)
	}
	if s.VideoEnabled() || s.AudioEnabled() {
		t.Error("no track may report enabled after Close")
	}
}

func TestClose_EmptyStream(t *testing.T) {
	s := NewStream()

	if err := s.Close(); err != nil {
		t.Fatalf("Close on empty stream: %v", err)
	}
}

func TestTrackStop_Idempotent(t *testing.T) {
	var stops int
	track := newTestTrack(pion.RTPCodecTypeVideo, &stops)

	if err := track.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := track.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if stops != 1 {
		t.Errorf("expected the capture stopped exactly once, got %d", stops)
	}
}

func TestSetEnabled_AfterStop(t *testing.T) {
	var stops int
	track := newTestTrack(pion.RTPCodecTypeVideo, &stops)
	track.Stop()

	if got := track.SetEnabled(true); got != false {
		t.Errorf("a stopped track must stay disabled, got %t", got)
	}
}

//go:build linux

package media

import (
	"fmt"
	"log"
	"strings"

	"peercall/native/internal/domain"

	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/opus"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
	"github.com/pion/mediadevices/pkg/prop"
)

// Source captures the local camera and microphone via pion/mediadevices
// (V4L2 + malgo). One Acquire per call session.
type Source struct{}

// NewSource creates a capture source.
func NewSource() *Source {
	return &Source{}
}

// Acquire opens camera and microphone, asking for 1280x720 video. Capture of
// both tracks is attempted first; if that fails as a unit, video-only and
// audio-only are tried so a missing microphone does not block the camera and
// vice versa. Only when every attempt fails is the acquisition an error.
func (s *Source) Acquire() (domain.LocalStream, error) {
	vpxParams, err := vpx.NewVP8Params()
	if err != nil {
		return nil, fmt.Errorf("vp8 params: %w", err)
	}
	vpxParams.BitRate = 1_500_000

	opusParams, err := opus.NewParams()
	if err != nil {
		return nil, fmt.Errorf("opus params: %w", err)
	}

	selector := mediadevices.NewCodecSelector(
		mediadevices.WithVideoEncoders(&vpxParams),
		mediadevices.WithAudioEncoders(&opusParams),
	)

	attempts := []struct {
		video bool
		audio bool
		label string
	}{
		{true, true, "video+audio"},
		{true, false, "video-only"},
		{false, true, "audio-only"},
	}

	var lastErr error
	for _, a := range attempts {
		constraints := mediadevices.MediaStreamConstraints{Codec: selector}
		if a.video {
			constraints.Video = func(c *mediadevices.MediaTrackConstraints) {
				c.Width = prop.IntRanged{Ideal: 1280}
				c.Height = prop.IntRanged{Ideal: 720}
			}
		}
		if a.audio {
			constraints.Audio = func(_ *mediadevices.MediaTrackConstraints) {}
		}

		stream, err := mediadevices.GetUserMedia(constraints)
		if err != nil {
			log.Printf("[media] capture (%s) failed: %v", a.label, err)
			lastErr = err
			continue
		}

		var tracks []*Track
		for _, t := range stream.GetTracks() {
			t.OnEnded(func(err error) {
				if err != nil {
					log.Printf("[media] local track ended: %v", err)
				}
			})
			tracks = append(tracks, NewTrack(t.Kind(), t, t.Close))
		}

		log.Printf("[media] local capture ready (%s), %d tracks", a.label, len(tracks))
		return NewStream(tracks...), nil
	}

	return nil, classifyCaptureError(lastErr)
}

// classifyCaptureError maps driver errors onto the acquisition error
// taxonomy so callers can distinguish a refused device from a missing one.
func classifyCaptureError(err error) error {
	if err == nil {
		return domain.ErrDeviceUnavailable
	}
	if strings.Contains(strings.ToLower(err.Error()), "permission denied") {
		return fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrDeviceUnavailable, err)
}

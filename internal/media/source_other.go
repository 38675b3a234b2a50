//go:build !linux

package media

import (
	"log"

	"peercall/native/internal/domain"
)

// Source is a capture stand-in for platforms without pion/mediadevices
// drivers. Calls proceed receive-only.
type Source struct{}

// NewSource creates a capture source.
func NewSource() *Source {
	return &Source{}
}

// Acquire returns an empty stream: camera/microphone capture requires the
// Linux V4L2/malgo drivers. The peer connection falls back to receive-only
// transceivers.
func (s *Source) Acquire() (domain.LocalStream, error) {
	log.Printf("[media] no local capture on this platform, proceeding receive-only")
	return NewStream(), nil
}

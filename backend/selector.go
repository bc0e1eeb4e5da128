package backend

import (
	"context"
	"log"
	"sync"
)

// Selector routes processing requests to the adapter that owns the
// currently configured backend identity. Adapter-local configuration
// (cloud model name, local recognition settings) is pushed down through
// the selector so no caller ever branches on a concrete adapter type.
type Selector struct {
	mu    sync.RWMutex
	id    ID
	cloud CloudBackend
	local LocalBackend
}

// NewSelector creates a selector with the default cloud backend active.
func NewSelector(cloud CloudBackend, local LocalBackend) *Selector {
	s := &Selector{id: GeminiFlash, cloud: cloud, local: local}
	cloud.SetModel(string(s.id))
	return s
}

// SetBackend updates the remembered identity. Cloud identities push the
// model name into the cloud adapter's configuration.
func (s *Selector) SetBackend(id ID) error {
	if _, err := ParseID(string(id)); err != nil {
		return err
	}
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
	if id.IsCloud() {
		s.cloud.SetModel(string(id))
	}
	log.Printf("Backend set to %s", id)
	return nil
}

// Backend returns the currently active identity.
func (s *Selector) Backend() ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Dispatch routes the request to the active adapter. Both adapters share
// the same process contract, so no format translation happens here.
func (s *Selector) Dispatch(ctx context.Context, image []byte, prompt string) (string, error) {
	s.mu.RLock()
	id := s.id
	s.mu.RUnlock()
	if id == Local {
		return s.local.Process(ctx, image, prompt)
	}
	return s.cloud.Process(ctx, image, prompt)
}

// UpdateLocalSettings forwards a partial settings update to the local
// adapter. Nil fields never clobber existing values.
func (s *Selector) UpdateLocalSettings(ls LocalSettings) {
	s.local.ApplySettings(ls)
}

package store

import (
	"context"
	"sync"
)

// Registry hands out one Service per account. Services are never replaced
// once created, so every caller for an owner shares one pipeline lock.
type Registry struct {
	repo Repository
	opts []Option

	mu       sync.Mutex
	services map[uint]*Service
}

// NewRegistry returns a Registry whose Services share repo and opts.
func NewRegistry(repo Repository, opts ...Option) *Registry {
	return &Registry{
		repo:     repo,
		opts:     opts,
		services: make(map[uint]*Service),
	}
}

// For returns the Service of ownerID with its mirror reloaded from the
// repository. The load runs outside the registry lock.
func (r *Registry) For(ctx context.Context, ownerID uint) (*Service, error) {
	svc := r.service(ownerID)
	if err := svc.Load(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

// Forget drops the mirror held for ownerID. The Service itself stays
// registered; the next For reloads it.
func (r *Registry) Forget(ownerID uint) {
	r.mu.Lock()
	svc, ok := r.services[ownerID]
	r.mu.Unlock()
	if ok {
		svc.release()
	}
}

func (r *Registry) service(ownerID uint) *Service {
	r.mu.Lock()
	defer r.mu.Unlock()

	svc, ok := r.services[ownerID]
	if !ok {
		svc = NewService(r.repo, ownerID, r.opts...)
		r.services[ownerID] = svc
	}
	return svc
}

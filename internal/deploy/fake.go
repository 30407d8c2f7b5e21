package deploy

import (
	"context"
	"sync"
)

// Fake is an in-memory Service used by tests and by daemons running
// without a deployment backend configured.
type Fake struct {
	mu       sync.RWMutex
	statuses map[string]Status
	err      error
}

func NewFake() *Fake {
	return &Fake{statuses: make(map[string]Status)}
}

// SetStatus records the status reported for an instance.
func (f *Fake) SetStatus(instanceID string, status Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[instanceID] = status
}

// Fail makes every Status call return err until cleared with nil.
func (f *Fake) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *Fake) Status(_ context.Context, instanceID string) (Status, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.err != nil {
		return Status{}, f.err
	}
	if status, ok := f.statuses[instanceID]; ok {
		return status, nil
	}
	return Status{State: StateNotDeployed}, nil
}

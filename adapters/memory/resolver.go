package memory

import (
	"context"
	"sync"

	"progresskit/core"
	"progresskit/engine"
)

// Directory is an in-memory UserResolver: a registry of known users keyed
// by primary and external identifiers. With AutoCreate set, unknown primary
// ids materialize on first sight, useful for demos and servers that trust
// an upstream identity layer.
type Directory struct {
	mu         sync.RWMutex
	byID       map[core.UserID]engine.User
	byExternal map[string]engine.User
	autoCreate bool
}

func NewDirectory() *Directory {
	return &Directory{
		byID:       map[core.UserID]engine.User{},
		byExternal: map[string]engine.User{},
	}
}

// NewOpenDirectory returns a directory that materializes unknown users.
func NewOpenDirectory() *Directory {
	d := NewDirectory()
	d.autoCreate = true
	return d
}

// Add registers a user under both identifiers.
func (d *Directory) Add(u engine.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byID[u.ID] = u
	if u.ExternalID != "" {
		d.byExternal[u.ExternalID] = u
	}
}

func (d *Directory) FindByID(_ context.Context, id core.UserID) (engine.User, error) {
	d.mu.RLock()
	u, ok := d.byID[id]
	d.mu.RUnlock()
	if ok {
		return u, nil
	}
	if d.autoCreate {
		u = engine.User{ID: id}
		d.mu.Lock()
		d.byID[id] = u
		d.mu.Unlock()
		return u, nil
	}
	return engine.User{}, engine.ErrUserNotFound
}

func (d *Directory) FindByExternalID(_ context.Context, externalID string) (engine.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if u, ok := d.byExternal[externalID]; ok {
		return u, nil
	}
	return engine.User{}, engine.ErrUserNotFound
}

var _ engine.UserResolver = (*Directory)(nil)
var _ engine.Storage = (*Store)(nil)

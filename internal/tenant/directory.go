package tenant

import (
	"context"
	"fmt"
	"sync"
)

// Membership binds a caller to a tenant.
type Membership struct {
	UserID   string `koanf:"user_id" json:"user_id"`
	TenantID string `koanf:"tenant_id" json:"tenant_id"`
}

// Directory is an in-process implementation of Memberships and Index backed
// by configuration. All lookups are read-mostly; a single RWMutex guards the
// maps so the directory can be reloaded while requests are in flight.
type Directory struct {
	mu      sync.RWMutex
	members map[string][]string       // caller id -> tenant ids
	kbs     map[string]*KnowledgeBase // kb id -> record
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		members: make(map[string][]string),
		kbs:     make(map[string]*KnowledgeBase),
	}
}

// Load replaces the directory contents with the given memberships and
// knowledge bases. Invalid records reject the whole load.
func (d *Directory) Load(memberships []Membership, kbs []KnowledgeBase) error {
	members := make(map[string][]string, len(memberships))
	for _, m := range memberships {
		if m.UserID == "" || m.TenantID == "" {
			return fmt.Errorf("membership requires user_id and tenant_id")
		}
		members[m.UserID] = append(members[m.UserID], m.TenantID)
	}

	records := make(map[string]*KnowledgeBase, len(kbs))
	for i := range kbs {
		kb := kbs[i]
		if err := kb.Validate(); err != nil {
			return err
		}
		if _, ok := records[kb.ID]; ok {
			return fmt.Errorf("%w: knowledge base %s", ErrDuplicateID, kb.ID)
		}
		records[kb.ID] = &kb
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.members = members
	d.kbs = records
	return nil
}

// AddMembership registers a caller as a member of a tenant.
func (d *Directory) AddMembership(userID, tenantID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.members[userID] {
		if t == tenantID {
			return
		}
	}
	d.members[userID] = append(d.members[userID], tenantID)
}

// AddKnowledgeBase registers a knowledge base record.
func (d *Directory) AddKnowledgeBase(kb KnowledgeBase) error {
	if err := kb.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kbs[kb.ID] = &kb
	return nil
}

// TenantsOf implements Memberships. Unknown callers get an empty slice.
func (d *Directory) TenantsOf(_ context.Context, callerID string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	tenants := d.members[callerID]
	out := make([]string, len(tenants))
	copy(out, tenants)
	return out, nil
}

// OwnedBy implements Index.
func (d *Directory) OwnedBy(_ context.Context, tenantID, kbID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	kb, ok := d.kbs[kbID]
	if !ok || kb.Deleted {
		return false, nil
	}
	return kb.TenantID == tenantID, nil
}

// Find implements Index.
func (d *Directory) Find(_ context.Context, kbID string) (*KnowledgeBase, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	kb, ok := d.kbs[kbID]
	if !ok || kb.Deleted {
		return nil, fmt.Errorf("%w: %s", ErrKnowledgeBaseNotFound, kbID)
	}
	out := *kb
	return &out, nil
}

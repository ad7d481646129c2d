package identity

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tenure.app/internal/ids"
)

// Memory implements Store in process, for tests and demo mode.
type Memory struct {
	mu    sync.RWMutex
	byID  map[string]*Identity
	byEml map[string]string // lowercased email -> id
}

// NewMemory creates an empty identity store.
func NewMemory() *Memory {
	return &Memory{
		byID:  make(map[string]*Identity),
		byEml: make(map[string]string),
	}
}

func (m *Memory) Create(ctx context.Context, id *Identity) error {
	if id == nil || strings.TrimSpace(id.Email) == "" {
		return ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(id.Email))
	if _, taken := m.byEml[email]; taken {
		return ErrEmailTaken
	}
	if id.ID == "" {
		id.ID = ids.New()
	}
	now := time.Now().UTC()
	id.Email = email
	id.CreatedAt = now
	id.UpdatedAt = now
	cp := *id
	m.byID[id.ID] = &cp
	m.byEml[email] = id.ID
	return nil
}

func (m *Memory) Find(ctx context.Context, id string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	found, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (m *Memory) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEml[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *Memory) ListByBuilding(ctx context.Context, buildingID string) ([]*Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Identity, 0)
	for _, found := range m.byID {
		if found.BuildingID == buildingID || found.AssignedTo(buildingID) {
			cp := *found
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Memory) Update(ctx context.Context, id string, upd Update) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	found, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if other, taken := m.byEml[email]; taken && other != id {
			return nil, ErrEmailTaken
		}
		delete(m.byEml, found.Email)
		found.Email = email
		m.byEml[email] = id
	}
	if upd.Name != nil {
		found.Name = *upd.Name
	}
	if upd.Password != nil {
		hash, err := HashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		found.PasswordHash = hash
	}
	if upd.Role != nil {
		found.Role = *upd.Role
	}
	if upd.BuildingID != nil {
		found.BuildingID = *upd.BuildingID
	}
	if upd.BuildingIDs != nil {
		found.BuildingIDs = append([]string(nil), upd.BuildingIDs...)
	}
	if upd.UnitID != nil {
		found.UnitID = *upd.UnitID
	}
	if upd.LeaseID != nil {
		found.LeaseID = *upd.LeaseID
	}
	if upd.Bio != nil {
		found.Bio = *upd.Bio
	}
	found.UpdatedAt = time.Now().UTC()
	cp := *found
	return &cp, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.byEml, found.Email)
	delete(m.byID, id)
	return nil
}

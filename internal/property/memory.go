package property

import (
	"context"
	"sort"
	"sync"
	"time"

	"tenure.app/internal/ids"
	"tenure.app/internal/tenancy"
)

// coll is an in-process record collection matching tenancy filters against
// field accessors. A filter condition on a field the accessor does not know
// matches nothing; an unknown column must never widen a result set.
type coll[T any] struct {
	mu     sync.RWMutex
	items  map[string]*T
	getID  func(*T) string
	setID  func(*T, string)
	stamp  func(*T, time.Time, bool)
	field  func(*T, string) (any, bool)
	oldest bool // list oldest-first (chat logs); default is newest-first
}

func (c *coll[T]) matches(item *T, f tenancy.Filter) bool {
	for _, cond := range f.Conditions() {
		v, ok := c.field(item, cond.Field)
		if !ok || v != cond.Value {
			return false
		}
	}
	return true
}

func (c *coll[T]) Create(ctx context.Context, item *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getID(item) == "" {
		c.setID(item, ids.New())
	}
	c.stamp(item, time.Now().UTC(), true)
	cp := *item
	c.items[c.getID(item)] = &cp
	return nil
}

func (c *coll[T]) Find(ctx context.Context, f tenancy.Filter) (*T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if c.matches(item, f) {
			cp := *item
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (c *coll[T]) List(ctx context.Context, f tenancy.Filter) ([]*T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*T, 0)
	for _, item := range c.items {
		if c.matches(item, f) {
			cp := *item
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, _ := c.field(out[i], "created_at")
		tj, _ := c.field(out[j], "created_at")
		a, _ := ti.(time.Time)
		b, _ := tj.(time.Time)
		if c.oldest {
			return a.Before(b)
		}
		return a.After(b)
	})
	return out, nil
}

func (c *coll[T]) Update(ctx context.Context, f tenancy.Filter, item *T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.getID(item)
	cur, ok := c.items[id]
	if !ok || !c.matches(cur, f) {
		return ErrNotFound
	}
	c.stamp(item, time.Now().UTC(), false)
	cp := *item
	c.items[id] = &cp
	return nil
}

func (c *coll[T]) Delete(ctx context.Context, f tenancy.Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, item := range c.items {
		if c.matches(item, f) {
			delete(c.items, id)
			return nil
		}
	}
	return ErrNotFound
}

// Memory holds every collection in process. It backs handler tests and the
// demo mode; the Postgres stores are the durable equivalents.
type Memory struct {
	buildings         *buildingMemory
	units             *coll[Unit]
	leases            *coll[Lease]
	invoices          *coll[Invoice]
	tickets           *coll[Ticket]
	announcements     *coll[Announcement]
	threads           *coll[Thread]
	messages          *coll[Message]
	communityMessages *coll[CommunityMessage]
	serviceAgents     *coll[ServiceAgent]
}

// NewMemory creates empty in-memory stores.
func NewMemory() *Memory {
	return &Memory{
		buildings: &buildingMemory{items: make(map[string]*Building)},
		units: &coll[Unit]{
			items: make(map[string]*Unit),
			getID: func(u *Unit) string { return u.ID },
			setID: func(u *Unit, id string) { u.ID = id },
			stamp: func(u *Unit, t time.Time, created bool) {
				if created {
					u.CreatedAt = t
				}
				u.UpdatedAt = t
			},
			field: unitField,
		},
		leases: &coll[Lease]{
			items: make(map[string]*Lease),
			getID: func(l *Lease) string { return l.ID },
			setID: func(l *Lease, id string) { l.ID = id },
			stamp: func(l *Lease, t time.Time, created bool) {
				if created {
					l.CreatedAt = t
				}
				l.UpdatedAt = t
			},
			field: leaseField,
		},
		invoices: &coll[Invoice]{
			items: make(map[string]*Invoice),
			getID: func(i *Invoice) string { return i.ID },
			setID: func(i *Invoice, id string) { i.ID = id },
			stamp: func(i *Invoice, t time.Time, created bool) {
				if created {
					i.CreatedAt = t
				}
				i.UpdatedAt = t
			},
			field: invoiceField,
		},
		tickets: &coll[Ticket]{
			items: make(map[string]*Ticket),
			getID: func(k *Ticket) string { return k.ID },
			setID: func(k *Ticket, id string) { k.ID = id },
			stamp: func(k *Ticket, t time.Time, created bool) {
				if created {
					k.CreatedAt = t
				}
				k.UpdatedAt = t
			},
			field: ticketField,
		},
		announcements: &coll[Announcement]{
			items: make(map[string]*Announcement),
			getID: func(a *Announcement) string { return a.ID },
			setID: func(a *Announcement, id string) { a.ID = id },
			stamp: func(a *Announcement, t time.Time, created bool) {
				if created {
					a.CreatedAt = t
				}
				a.UpdatedAt = t
			},
			field: announcementField,
		},
		threads: &coll[Thread]{
			items: make(map[string]*Thread),
			getID: func(th *Thread) string { return th.ID },
			setID: func(th *Thread, id string) { th.ID = id },
			stamp: func(th *Thread, t time.Time, created bool) {
				if created {
					th.CreatedAt = t
				}
				th.UpdatedAt = t
			},
			field: threadField,
		},
		messages: &coll[Message]{
			items: make(map[string]*Message),
			getID: func(m *Message) string { return m.ID },
			setID: func(m *Message, id string) { m.ID = id },
			stamp: func(m *Message, t time.Time, created bool) {
				if created {
					m.CreatedAt = t
				}
				m.UpdatedAt = t
			},
			field:  messageField,
			oldest: true,
		},
		communityMessages: &coll[CommunityMessage]{
			items: make(map[string]*CommunityMessage),
			getID: func(m *CommunityMessage) string { return m.ID },
			setID: func(m *CommunityMessage, id string) { m.ID = id },
			stamp: func(m *CommunityMessage, t time.Time, created bool) {
				if created {
					m.CreatedAt = t
				}
				m.UpdatedAt = t
			},
			field:  communityMessageField,
			oldest: true,
		},
		serviceAgents: &coll[ServiceAgent]{
			items: make(map[string]*ServiceAgent),
			getID: func(a *ServiceAgent) string { return a.ID },
			setID: func(a *ServiceAgent, id string) { a.ID = id },
			stamp: func(a *ServiceAgent, t time.Time, created bool) {
				if created {
					a.CreatedAt = t
				}
				a.UpdatedAt = t
			},
			field: serviceAgentField,
		},
	}
}

// Stores returns the bundle the server wires handlers with.
func (m *Memory) Stores() Stores {
	return Stores{
		Buildings:         m.buildings,
		Units:             m.units,
		Leases:            m.leases,
		Invoices:          m.invoices,
		Tickets:           m.tickets,
		Announcements:     m.announcements,
		Threads:           m.threads,
		Messages:          m.messages,
		CommunityMessages: m.communityMessages,
		ServiceAgents:     m.serviceAgents,
	}
}

// buildingMemory is the unscoped registry collection.
type buildingMemory struct {
	mu    sync.RWMutex
	items map[string]*Building
}

func (s *buildingMemory) Create(ctx context.Context, b *Building) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = ids.New()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	cp := *b
	s.items[b.ID] = &cp
	return nil
}

func (s *buildingMemory) Find(ctx context.Context, id string) (*Building, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *buildingMemory) List(ctx context.Context) ([]*Building, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Building, 0, len(s.items))
	for _, b := range s.items {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *buildingMemory) Update(ctx context.Context, b *Building) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[b.ID]; !ok {
		return ErrNotFound
	}
	b.UpdatedAt = time.Now().UTC()
	cp := *b
	s.items[b.ID] = &cp
	return nil
}

func (s *buildingMemory) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func unitField(u *Unit, name string) (any, bool) {
	switch name {
	case "id":
		return u.ID, true
	case "building_id":
		return u.BuildingID, true
	case "status":
		return u.Status, true
	case "number":
		return u.Number, true
	case "created_at":
		return u.CreatedAt, true
	}
	return nil, false
}

func leaseField(l *Lease, name string) (any, bool) {
	switch name {
	case "id":
		return l.ID, true
	case "building_id":
		return l.BuildingID, true
	case "unit_id":
		return l.UnitID, true
	case "resident_id":
		return l.ResidentID, true
	case "status":
		return l.Status, true
	case "created_at":
		return l.CreatedAt, true
	}
	return nil, false
}

func invoiceField(i *Invoice, name string) (any, bool) {
	switch name {
	case "id":
		return i.ID, true
	case "building_id":
		return i.BuildingID, true
	case "resident_id":
		return i.ResidentID, true
	case "unit_id":
		return i.UnitID, true
	case "lease_id":
		return i.LeaseID, true
	case "status":
		return i.Status, true
	case "created_at":
		return i.CreatedAt, true
	}
	return nil, false
}

func ticketField(t *Ticket, name string) (any, bool) {
	switch name {
	case "id":
		return t.ID, true
	case "building_id":
		return t.BuildingID, true
	case "resident_id":
		return t.ResidentID, true
	case "unit_id":
		return t.UnitID, true
	case "status":
		return t.Status, true
	case "priority":
		return t.Priority, true
	case "created_at":
		return t.CreatedAt, true
	}
	return nil, false
}

func announcementField(a *Announcement, name string) (any, bool) {
	switch name {
	case "id":
		return a.ID, true
	case "building_id":
		return a.BuildingID, true
	case "status":
		return a.Status, true
	case "created_at":
		return a.CreatedAt, true
	}
	return nil, false
}

func threadField(t *Thread, name string) (any, bool) {
	switch name {
	case "id":
		return t.ID, true
	case "building_id":
		return t.BuildingID, true
	case "resident_id":
		return t.ResidentID, true
	case "unit_id":
		return t.UnitID, true
	case "status":
		return t.Status, true
	case "created_at":
		return t.CreatedAt, true
	}
	return nil, false
}

func messageField(m *Message, name string) (any, bool) {
	switch name {
	case "id":
		return m.ID, true
	case "building_id":
		return m.BuildingID, true
	case "thread_id":
		return m.ThreadID, true
	case "sender_id":
		return m.SenderID, true
	case "created_at":
		return m.CreatedAt, true
	}
	return nil, false
}

func communityMessageField(m *CommunityMessage, name string) (any, bool) {
	switch name {
	case "id":
		return m.ID, true
	case "building_id":
		return m.BuildingID, true
	case "sender_id":
		return m.SenderID, true
	case "created_at":
		return m.CreatedAt, true
	}
	return nil, false
}

func serviceAgentField(a *ServiceAgent, name string) (any, bool) {
	switch name {
	case "id":
		return a.ID, true
	case "building_id":
		return a.BuildingID, true
	case "trade":
		return a.Trade, true
	case "status":
		return a.Status, true
	case "created_at":
		return a.CreatedAt, true
	}
	return nil, false
}

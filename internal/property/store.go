package property

import (
	"context"

	"tenure.app/internal/tenancy"
)

// BuildingStore manages the tenancy registry. It takes plain ids, not
// filters: access to buildings is gated by role at the HTTP layer.
type BuildingStore interface {
	Create(ctx context.Context, b *Building) error
	Find(ctx context.Context, id string) (*Building, error)
	List(ctx context.Context) ([]*Building, error)
	Update(ctx context.Context, b *Building) error
	Delete(ctx context.Context, id string) error
}

// UnitStore manages units within a building.
type UnitStore interface {
	Create(ctx context.Context, u *Unit) error
	Find(ctx context.Context, f tenancy.Filter) (*Unit, error)
	List(ctx context.Context, f tenancy.Filter) ([]*Unit, error)
	Update(ctx context.Context, f tenancy.Filter, u *Unit) error
	Delete(ctx context.Context, f tenancy.Filter) error
}

type LeaseStore interface {
	Create(ctx context.Context, l *Lease) error
	Find(ctx context.Context, f tenancy.Filter) (*Lease, error)
	List(ctx context.Context, f tenancy.Filter) ([]*Lease, error)
	Update(ctx context.Context, f tenancy.Filter, l *Lease) error
	Delete(ctx context.Context, f tenancy.Filter) error
}

type InvoiceStore interface {
	Create(ctx context.Context, inv *Invoice) error
	Find(ctx context.Context, f tenancy.Filter) (*Invoice, error)
	List(ctx context.Context, f tenancy.Filter) ([]*Invoice, error)
	Update(ctx context.Context, f tenancy.Filter, inv *Invoice) error
	Delete(ctx context.Context, f tenancy.Filter) error
}

type TicketStore interface {
	Create(ctx context.Context, t *Ticket) error
	Find(ctx context.Context, f tenancy.Filter) (*Ticket, error)
	List(ctx context.Context, f tenancy.Filter) ([]*Ticket, error)
	Update(ctx context.Context, f tenancy.Filter, t *Ticket) error
	Delete(ctx context.Context, f tenancy.Filter) error
}

type AnnouncementStore interface {
	Create(ctx context.Context, a *Announcement) error
	Find(ctx context.Context, f tenancy.Filter) (*Announcement, error)
	List(ctx context.Context, f tenancy.Filter) ([]*Announcement, error)
	Update(ctx context.Context, f tenancy.Filter, a *Announcement) error
	Delete(ctx context.Context, f tenancy.Filter) error
}

type ThreadStore interface {
	Create(ctx context.Context, t *Thread) error
	Find(ctx context.Context, f tenancy.Filter) (*Thread, error)
	List(ctx context.Context, f tenancy.Filter) ([]*Thread, error)
	Update(ctx context.Context, f tenancy.Filter, t *Thread) error
	Delete(ctx context.Context, f tenancy.Filter) error
}

// MessageStore is append-plus-list: thread messages are never edited.
type MessageStore interface {
	Create(ctx context.Context, m *Message) error
	List(ctx context.Context, f tenancy.Filter) ([]*Message, error)
}

type CommunityMessageStore interface {
	Create(ctx context.Context, m *CommunityMessage) error
	List(ctx context.Context, f tenancy.Filter) ([]*CommunityMessage, error)
	Delete(ctx context.Context, f tenancy.Filter) error
}

type ServiceAgentStore interface {
	Create(ctx context.Context, a *ServiceAgent) error
	Find(ctx context.Context, f tenancy.Filter) (*ServiceAgent, error)
	List(ctx context.Context, f tenancy.Filter) ([]*ServiceAgent, error)
	Update(ctx context.Context, f tenancy.Filter, a *ServiceAgent) error
	Delete(ctx context.Context, f tenancy.Filter) error
}

// Stores bundles every per-entity store a server needs.
type Stores struct {
	Buildings         BuildingStore
	Units             UnitStore
	Leases            LeaseStore
	Invoices          InvoiceStore
	Tickets           TicketStore
	Announcements     AnnouncementStore
	Threads           ThreadStore
	Messages          MessageStore
	CommunityMessages CommunityMessageStore
	ServiceAgents     ServiceAgentStore
}

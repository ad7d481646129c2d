// Package property holds the building-scoped domain records and their
// store contracts. Every record except Building carries the building_id
// partition column; stores accept tenancy filters so scope enforcement
// happens inside the query, not around it.
package property

import "time"

// Attachment is file metadata recorded against a record. The file bytes
// themselves live outside this service.
type Attachment struct {
	URL      string `json:"url"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Building is the tenancy registry entry. Buildings are role-gated rather
// than tenant-scoped: they define the partitions everything else lives in.
type Building struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Code          string    `json:"code,omitempty"`
	AddressLine1  string    `json:"address_line1,omitempty"`
	AddressLine2  string    `json:"address_line2,omitempty"`
	City          string    `json:"city,omitempty"`
	State         string    `json:"state,omitempty"`
	PostalCode    string    `json:"postal_code,omitempty"`
	Country       string    `json:"country,omitempty"`
	Status        string    `json:"status"`
	ManagementIDs []string  `json:"management_ids,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Unit statuses.
const (
	UnitVacant      = "vacant"
	UnitOccupied    = "occupied"
	UnitMaintenance = "maintenance"
)

type Unit struct {
	ID         string    `json:"id"`
	BuildingID string    `json:"building_id"`
	Number     string    `json:"number"`
	Floor      string    `json:"floor,omitempty"`
	Status     string    `json:"status"`
	Beds       int       `json:"beds"`
	Baths      int       `json:"baths"`
	SizeSqft   int       `json:"size_sqft,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Lease statuses.
const (
	LeasePending = "pending"
	LeaseActive  = "active"
	LeaseEnded   = "ended"
)

type Lease struct {
	ID                string      `json:"id"`
	BuildingID        string      `json:"building_id"`
	UnitID            string      `json:"unit_id,omitempty"`
	ResidentID        string      `json:"resident_id,omitempty"`
	StartDate         time.Time   `json:"start_date"`
	EndDate           *time.Time  `json:"end_date,omitempty"`
	Status            string      `json:"status"`
	RentAmount        int64       `json:"rent_amount,omitempty"`
	Currency          string      `json:"currency,omitempty"`
	TerminationReason string      `json:"termination_reason,omitempty"`
	TerminatedAt      *time.Time  `json:"terminated_at,omitempty"`
	TerminatedBy      string      `json:"terminated_by,omitempty"`
	Document          *Attachment `json:"document,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Invoice statuses.
const (
	InvoiceDraft   = "draft"
	InvoiceOpen    = "open"
	InvoicePaid    = "paid"
	InvoiceOverdue = "overdue"
	InvoiceVoid    = "void"
)

// LineItem is one priced line on an invoice. Amounts are minor units.
type LineItem struct {
	Description string `json:"description,omitempty"`
	Amount      int64  `json:"amount"`
}

type Invoice struct {
	ID          string       `json:"id"`
	BuildingID  string       `json:"building_id"`
	ResidentID  string       `json:"resident_id,omitempty"`
	UnitID      string       `json:"unit_id,omitempty"`
	LeaseID     string       `json:"lease_id,omitempty"`
	Amount      int64        `json:"amount"`
	Currency    string       `json:"currency"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	Status      string       `json:"status"`
	LineItems   []LineItem   `json:"line_items,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Ticket statuses and priorities.
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// TicketNote is one comment on a ticket's inline conversation.
type TicketNote struct {
	SenderID   string    `json:"sender_id,omitempty"`
	SenderRole string    `json:"sender_role,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

type Ticket struct {
	ID                string       `json:"id"`
	BuildingID        string       `json:"building_id"`
	ResidentID        string       `json:"resident_id,omitempty"`
	UnitID            string       `json:"unit_id,omitempty"`
	Title             string       `json:"title"`
	Description       string       `json:"description,omitempty"`
	AssignedAgentID   string       `json:"assigned_agent_id,omitempty"`
	AssignedAgentName string       `json:"assigned_agent_name,omitempty"`
	Status            string       `json:"status"`
	Priority          string       `json:"priority"`
	Attachments       []Attachment `json:"attachments,omitempty"`
	Notes             []TicketNote `json:"notes,omitempty"`
	CompletionNotes   string       `json:"completion_notes,omitempty"`
	CompletedAt       *time.Time   `json:"completed_at,omitempty"`
	CompletedBy       string       `json:"completed_by,omitempty"`
	DueDate           *time.Time   `json:"due_date,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

// Announcement statuses.
const (
	AnnouncementDraft     = "draft"
	AnnouncementPublished = "published"
	AnnouncementArchived  = "archived"
)

type Announcement struct {
	ID         string     `json:"id"`
	BuildingID string     `json:"building_id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	Status     string     `json:"status"`
	PublishAt  *time.Time `json:"publish_at,omitempty"`
	AuthorID   string     `json:"author_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type Thread struct {
	ID            string     `json:"id"`
	BuildingID    string     `json:"building_id"`
	Subject       string     `json:"subject,omitempty"`
	Status        string     `json:"status"`
	ResidentID    string     `json:"resident_id,omitempty"`
	UnitID        string     `json:"unit_id,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type Message struct {
	ID          string       `json:"id"`
	BuildingID  string       `json:"building_id"`
	ThreadID    string       `json:"thread_id"`
	SenderID    string       `json:"sender_id,omitempty"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type CommunityMessage struct {
	ID          string       `json:"id"`
	BuildingID  string       `json:"building_id"`
	SenderID    string       `json:"sender_id,omitempty"`
	SenderName  string       `json:"sender_name,omitempty"`
	Body        string       `json:"body"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Service agent trades.
const (
	TradePlumber     = "plumber"
	TradeElectrician = "electrician"
	TradeHandyman    = "handyman"
	TradeHVAC        = "hvac"
	TradeCleaning    = "cleaning"
	TradeOther       = "other"
)

type ServiceAgent struct {
	ID         string    `json:"id"`
	BuildingID string    `json:"building_id"`
	Name       string    `json:"name"`
	Trade      string    `json:"trade"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Company    string    `json:"company,omitempty"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

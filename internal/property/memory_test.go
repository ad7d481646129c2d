package property

import (
	"context"
	"errors"
	"testing"

	"tenure.app/internal/tenancy"
)

func bfilter(buildingID string) tenancy.Filter {
	return tenancy.NewFilter(tenancy.Cond{Field: tenancy.FieldBuilding, Value: buildingID})
}

func TestMemoryScopesListsByFilter(t *testing.T) {
	ctx := context.Background()
	stores := NewMemory().Stores()

	for _, inv := range []*Invoice{
		{BuildingID: "B1", ResidentID: "R1", Amount: 1200, Currency: "USD", Status: InvoiceOpen},
		{BuildingID: "B1", ResidentID: "R2", Amount: 900, Currency: "USD", Status: InvoiceOpen},
		{BuildingID: "B2", ResidentID: "R3", Amount: 700, Currency: "USD", Status: InvoiceOpen},
	} {
		if err := stores.Invoices.Create(ctx, inv); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	all, err := stores.Invoices.List(ctx, bfilter("B1"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 invoices in B1, got %d", len(all))
	}

	mine, err := stores.Invoices.List(ctx, bfilter("B1").With("resident_id", "R1"))
	if err != nil {
		t.Fatalf("list narrowed: %v", err)
	}
	if len(mine) != 1 || mine[0].ResidentID != "R1" {
		t.Fatalf("resident narrowing leaked: %+v", mine)
	}
}

func TestMemoryUnknownFilterFieldMatchesNothing(t *testing.T) {
	ctx := context.Background()
	stores := NewMemory().Stores()

	if err := stores.Invoices.Create(ctx, &Invoice{BuildingID: "B1", Amount: 100, Currency: "USD", Status: InvoiceOpen}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := stores.Invoices.List(ctx, bfilter("B1").With("no_such_column", "x"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("unknown column must not widen the result set, got %d rows", len(got))
	}
}

func TestMemoryUpdateRespectsFilter(t *testing.T) {
	ctx := context.Background()
	stores := NewMemory().Stores()

	tk := &Ticket{BuildingID: "B1", ResidentID: "R1", Title: "leaky faucet", Status: TicketOpen, Priority: PriorityMedium}
	if err := stores.Tickets.Create(ctx, tk); err != nil {
		t.Fatalf("create: %v", err)
	}

	tk.Status = TicketResolved
	// A filter for another building must not reach the record.
	if err := stores.Tickets.Update(ctx, bfilter("B2"), tk); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-building update: expected ErrNotFound, got %v", err)
	}
	if err := stores.Tickets.Update(ctx, bfilter("B1"), tk); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := stores.Tickets.Find(ctx, bfilter("B1").With("id", tk.ID))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != TicketResolved {
		t.Fatalf("status = %q, want resolved", got.Status)
	}
}

func TestMemoryDeleteRespectsFilter(t *testing.T) {
	ctx := context.Background()
	stores := NewMemory().Stores()

	a := &Announcement{BuildingID: "B1", Title: "pool closed", Body: "maintenance", Status: AnnouncementPublished}
	if err := stores.Announcements.Create(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := stores.Announcements.Delete(ctx, bfilter("B2").With("id", a.ID)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-building delete: expected ErrNotFound, got %v", err)
	}
	if err := stores.Announcements.Delete(ctx, bfilter("B1").With("id", a.ID)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := stores.Announcements.Find(ctx, bfilter("B1").With("id", a.ID)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestMemoryMessagesListOldestFirst(t *testing.T) {
	ctx := context.Background()
	stores := NewMemory().Stores()

	for _, body := range []string{"first", "second", "third"} {
		if err := stores.Messages.Create(ctx, &Message{BuildingID: "B1", ThreadID: "T1", Body: body}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	got, err := stores.Messages.List(ctx, bfilter("B1").With("thread_id", "T1"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].Body != "first" || got[2].Body != "third" {
		t.Fatalf("chat order wrong: %+v", got)
	}
}

func TestBuildingRegistry(t *testing.T) {
	ctx := context.Background()
	stores := NewMemory().Stores()

	b := &Building{Name: "Harborview", Code: "HBV", Status: "active"}
	if err := stores.Buildings.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID == "" {
		t.Fatal("expected assigned id")
	}
	got, err := stores.Buildings.Find(ctx, b.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	got.Status = "inactive"
	if err := stores.Buildings.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := stores.Buildings.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := stores.Buildings.Find(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

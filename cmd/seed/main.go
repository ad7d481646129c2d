// Command seed loads a demo dataset: one building, a handful of units and
// one account per role, all sharing the password "password123!".
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tenure.app/internal/identity"
	"tenure.app/internal/property"
	"tenure.app/internal/store/pg"
	"tenure.app/internal/tenancy"
)

func buildingFilter(buildingID string) tenancy.Filter {
	return tenancy.NewFilter(tenancy.Cond{Field: tenancy.FieldBuilding, Value: buildingID})
}

const demoPassword = "password123!"

func main() {
	dsn := flag.String("dsn", os.Getenv("TENURE_PG_DSN"), "PostgreSQL DSN")
	flag.Parse()

	if *dsn == "" {
		log.Fatal("seed: -dsn or TENURE_PG_DSN is required")
	}

	store, err := pg.Open(*dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, store); err != nil {
		log.Fatalf("seed: %v", err)
	}
}

func run(ctx context.Context, store *pg.Store) error {
	stores := store.Stores()
	identities := store.Identities()

	building := &property.Building{
		Name:         "Maple Court",
		Code:         "MAPLE",
		AddressLine1: "12 Maple Street",
		City:         "Springfield",
		Country:      "US",
		Status:       "active",
	}
	if err := stores.Buildings.Create(ctx, building); err != nil {
		return fmt.Errorf("create building: %w", err)
	}
	fmt.Printf("building %s (%s)\n", building.Name, building.ID)

	var units []*property.Unit
	for i := 1; i <= 4; i++ {
		unit := &property.Unit{
			BuildingID: building.ID,
			Number:     fmt.Sprintf("%d01", i),
			Floor:      fmt.Sprintf("%d", i),
			Status:     property.UnitVacant,
			Beds:       2,
			Baths:      1,
		}
		if err := stores.Units.Create(ctx, unit); err != nil {
			return fmt.Errorf("create unit %s: %w", unit.Number, err)
		}
		units = append(units, unit)
	}

	hash, err := identity.HashPassword(demoPassword)
	if err != nil {
		return err
	}

	admin := &identity.Identity{
		Name:         "Demo Admin",
		Email:        "admin@tenure.local",
		PasswordHash: hash,
		Role:         identity.RoleAdmin,
		BuildingID:   building.ID,
	}
	management := &identity.Identity{
		Name:         "Demo Manager",
		Email:        "manager@tenure.local",
		PasswordHash: hash,
		Role:         identity.RoleManagement,
		BuildingID:   building.ID,
		BuildingIDs:  []string{building.ID},
	}
	resident := &identity.Identity{
		Name:         "Demo Resident",
		Email:        "resident@tenure.local",
		PasswordHash: hash,
		Role:         identity.RoleResident,
		BuildingID:   building.ID,
		UnitID:       units[0].ID,
	}
	for _, u := range []*identity.Identity{admin, management, resident} {
		if err := identities.Create(ctx, u); err != nil {
			return fmt.Errorf("create %s: %w", u.Email, err)
		}
		fmt.Printf("%-10s %s\n", u.Role.String(), u.Email)
	}

	start := time.Now().UTC().AddDate(0, -1, 0)
	lease := &property.Lease{
		BuildingID: building.ID,
		UnitID:     units[0].ID,
		ResidentID: resident.ID,
		StartDate:  start,
		Status:     property.LeaseActive,
		RentAmount: 120000,
		Currency:   "USD",
	}
	if err := stores.Leases.Create(ctx, lease); err != nil {
		return fmt.Errorf("create lease: %w", err)
	}
	if _, err := identities.Update(ctx, resident.ID, identity.Update{
		LeaseID: &lease.ID,
		UnitID:  &units[0].ID,
	}); err != nil {
		return fmt.Errorf("link resident: %w", err)
	}
	units[0].Status = property.UnitOccupied
	if err := stores.Units.Update(ctx, buildingFilter(building.ID), units[0]); err != nil {
		return fmt.Errorf("occupy unit: %w", err)
	}

	fmt.Println("seed complete; password for all demo accounts:", demoPassword)
	return nil
}

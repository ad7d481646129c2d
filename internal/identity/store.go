package identity

import "context"

// Update carries optional field changes; nil pointers leave fields as-is.
type Update struct {
	Name        *string
	Email       *string
	Password    *string
	Role        *Role
	BuildingID  *string
	BuildingIDs []string
	UnitID      *string
	LeaseID     *string
	Bio         *string
}

// Store describes identity persistence.
type Store interface {
	Create(ctx context.Context, id *Identity) error
	Find(ctx context.Context, id string) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	ListByBuilding(ctx context.Context, buildingID string) ([]*Identity, error)
	Update(ctx context.Context, id string, upd Update) (*Identity, error)
	Delete(ctx context.Context, id string) error
}

package identity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of actor roles. The zero value is invalid so a
// missing or corrupted role can never pass a dispatch switch.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleResident
	RoleManagement
	RoleAdmin
)

// ParseRole maps the wire/storage name onto the enum.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "resident":
		return RoleResident, nil
	case "management":
		return RoleManagement, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return RoleUnknown, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleResident:
		return "resident"
	case RoleManagement:
		return "management"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Valid reports whether r is one of the three defined roles.
func (r Role) Valid() bool {
	return r == RoleResident || r == RoleManagement || r == RoleAdmin
}

func (r Role) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Identity is an account operating within one or more buildings. Residents
// carry a home building plus optional unit/lease links; management and admin
// identities carry a set of assigned buildings.
type Identity struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	BuildingID   string    `json:"building_id,omitempty"`
	BuildingIDs  []string  `json:"building_ids,omitempty"`
	UnitID       string    `json:"unit_id,omitempty"`
	LeaseID      string    `json:"lease_id,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HomeBuilding returns the resident's home building, falling back to the
// first assigned building when no home is set.
func (i *Identity) HomeBuilding() string {
	if i.BuildingID != "" {
		return i.BuildingID
	}
	if len(i.BuildingIDs) > 0 {
		return i.BuildingIDs[0]
	}
	return ""
}

// AssignedTo reports whether buildingID is in the identity's assignment set.
func (i *Identity) AssignedTo(buildingID string) bool {
	for _, b := range i.BuildingIDs {
		if b == buildingID {
			return true
		}
	}
	return false
}

// Sanitized returns a copy safe to hand to clients.
func (i *Identity) Sanitized() *Identity {
	out := *i
	out.PasswordHash = ""
	return &out
}

package domain

import "time"

const (
	RoleDonor     = "donor"
	RoleReceiver  = "receiver"
	RoleVolunteer = "volunteer"
)

// PasswordManagedExternally is stored in password_hash for users whose
// credentials live with the identity provider.
const PasswordManagedExternally = "idp_managed"

// Default coordinates for users registering without a location.
const (
	DefaultLatitude  = 12.9716
	DefaultLongitude = 77.5946
)

func ValidRole(r string) bool {
	switch r {
	case RoleDonor, RoleReceiver, RoleVolunteer:
		return true
	}
	return false
}

type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone"`
	Hash         string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"` // donor | receiver | volunteer
	Organization *string   `db:"organization" json:"organization,omitempty"`
	Latitude     float64   `db:"latitude" json:"latitude"`
	Longitude    float64   `db:"longitude" json:"longitude"`
	Address      string    `db:"address" json:"address"`
	Verified     bool      `db:"verified" json:"verified"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"foodloop/internal/domain"
	"foodloop/internal/identity"
	"foodloop/internal/repos"
	"foodloop/internal/validate"
)

// Profile is the registration data sent with the first sync of a new user.
type Profile struct {
	Name         string
	Phone        string
	Role         string
	Organization *string
	Address      string
	Latitude     *float64
	Longitude    *float64
}

type AuthService struct {
	Users    *repos.UserRepo
	Verifier identity.Verifier
	Now      func() time.Time
}

func NewAuthService(db *sqlx.DB, v identity.Verifier) *AuthService {
	return &AuthService{Users: repos.NewUserRepo(db), Verifier: v}
}

// Sync verifies token and returns the matching user, registering it from
// profile on first sight. created reports whether a row was inserted.
func (s *AuthService) Sync(ctx context.Context, token string, p Profile) (u *domain.User, created bool, err error) {
	id, err := s.Verifier.Verify(ctx, token)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrAuthInvalid, err)
	}
	return s.SyncUser(ctx, id.Email, id.EmailVerified, p)
}

// SyncUser is Sync after the identity provider vouched for email. verified is
// the provider's email_verified claim and is stored on registration. An
// existing user is returned unchanged; profile fields are ignored for them.
func (s *AuthService) SyncUser(ctx context.Context, email string, verified bool, p Profile) (*domain.User, bool, error) {
	email, ok := validate.Email(strings.ToLower(email))
	if !ok {
		return nil, false, fmt.Errorf("%w: malformed email claim", ErrAuthInvalid)
	}
	existing, err := s.Users.ByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	v := validate.Violations{}
	name, ok := validate.Name(p.Name)
	if !ok {
		v.Add("name", "Name must be between 2 and 255 characters")
	}
	phone, ok := validate.Phone(p.Phone)
	if !ok {
		v.Add("phone", "Please enter a valid phone number (10-15 digits)")
	}
	role, ok := validate.Role(p.Role)
	if !ok {
		v.Add("role", "Role must be one of: donor, receiver, or volunteer")
	}
	lat, lon := domain.DefaultLatitude, domain.DefaultLongitude
	if p.Latitude != nil && *p.Latitude != 0 {
		lat = *p.Latitude
	}
	if p.Longitude != nil && *p.Longitude != 0 {
		lon = *p.Longitude
	}
	if !validate.Latitude(lat) {
		v.Add("latitude", "latitude must be between -90 and 90")
	}
	if !validate.Longitude(lon) {
		v.Add("longitude", "longitude must be between -180 and 180")
	}
	org := optionalText(v, "organization", p.Organization, 255)
	address := strings.TrimSpace(p.Address)
	if len(address) > 500 {
		v.Add("address", "address must be at most 500 characters")
	}
	if err := invalid(v); err != nil {
		return nil, false, err
	}

	now := clock(s.Now)
	u := &domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        phone,
		Hash:         domain.PasswordManagedExternally,
		Role:         role,
		Organization: org,
		Latitude:     lat,
		Longitude:    lon,
		Address:      address,
		Verified:     verified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if col, ok := repos.UniqueViolation(err); ok {
			if col == "" {
				col = "email"
			}
			return nil, false, invalid(validate.Violations{col: alreadyRegistered(col)})
		}
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return u, true, nil
}

// Authenticate resolves a bearer token to a registered user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	id, err := s.Verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthInvalid, err)
	}
	u, err := s.Users.ByEmail(ctx, strings.ToLower(id.Email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotRegistered
	}
	return u, err
}

func alreadyRegistered(col string) string {
	if col == "phone" {
		return "This phone number is already registered"
	}
	return "This email is already registered"
}

package repos

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"foodloop/internal/domain"
)

// SeedDemo inserts sample donors, receivers, listings and analytics.
// Safe to run on every startup (idempotent). Seeded users carry a bcrypt
// hash of a shared demo password for parity with password-based dev setups.
func SeedDemo(ctx context.Context, db *sqlx.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), 10)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	org := func(s string) *string { return &s }

	users := []domain.User{
		{ID: "u-taj", Name: "Taj Restaurant", Email: "taj@restaurant.com", Phone: "+919876543210", Role: domain.RoleDonor,
			Organization: org("Taj Restaurant"), Latitude: 12.9716, Longitude: 77.5946, Address: "MG Road, Bangalore"},
		{ID: "u-feeding-india", Name: "Feeding India NGO", Email: "contact@feedingindia.org", Phone: "+919876543211", Role: domain.RoleReceiver,
			Organization: org("Feeding India"), Latitude: 12.9352, Longitude: 77.6245, Address: "Indiranagar, Bangalore"},
		{ID: "u-john", Name: "John Volunteer", Email: "john@volunteer.com", Phone: "+919876543212", Role: domain.RoleVolunteer,
			Latitude: 12.9698, Longitude: 77.5987, Address: "Koramangala, Bangalore"},
		{ID: "u-mehta", Name: "Mehta Residence", Email: "mehta@home.com", Phone: "+919876543213", Role: domain.RoleDonor,
			Latitude: 12.9352, Longitude: 77.6245, Address: "Indiranagar, Bangalore"},
		{ID: "u-akshaya", Name: "Akshaya Patra Foundation", Email: "info@akshayapatra.org", Phone: "+919876543214", Role: domain.RoleReceiver,
			Organization: org("Akshaya Patra"), Latitude: 12.9141, Longitude: 77.6411, Address: "HSR Layout, Bangalore"},
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for i := range users {
		u := &users[i]
		u.Hash, u.Verified, u.CreatedAt, u.UpdatedAt = string(hash), true, now, now
		if _, err := sqlx.NamedExecContext(ctx, tx, `
			INSERT INTO users(`+userCols+`)
			VALUES(:id,:name,:email,:phone,:password_hash,:role,:organization,:latitude,:longitude,:address,:verified,:created_at,:updated_at)
			ON CONFLICT DO NOTHING
		`, u); err != nil {
			return err
		}
	}

	var n int
	if err := sqlx.GetContext(ctx, tx, &n, `SELECT COUNT(*) FROM listings`); err != nil {
		return err
	}
	if n == 0 {
		log.Println("[seed] inserting demo listings/analytics")
		veg := org("vegetarian")
		listings := []domain.Listing{
			{ID: "l-veg-meals", DonorID: "u-taj", FoodType: "Mixed Vegetarian Meals", Quantity: "50 servings",
				Description: org("Surplus from lunch buffet - biryani, dal, vegetables"), Latitude: 12.9716, Longitude: 77.5946,
				Address: "MG Road, Bangalore", Contact: "+919876543210", ExpiryTime: now.Add(2 * time.Hour)},
			{ID: "l-paneer", DonorID: "u-taj", FoodType: "Paneer Dishes", Quantity: "30 servings",
				Description: org("Fresh paneer butter masala and paneer tikka"), Latitude: 12.9716, Longitude: 77.5946,
				Address: "MG Road, Bangalore", Contact: "+919876543210", ExpiryTime: now.Add(3 * time.Hour)},
			{ID: "l-home-cooked", DonorID: "u-mehta", FoodType: "Home-cooked Food", Quantity: "10 servings",
				Description: org("Party leftovers - paneer dishes, rotis, rice"), Latitude: 12.9352, Longitude: 77.6245,
				Address: "Indiranagar, Bangalore", Contact: "+919876543213", ExpiryTime: now.Add(4 * time.Hour)},
			{ID: "l-snacks", DonorID: "u-mehta", FoodType: "Mixed Snacks", Quantity: "20 servings",
				Description: org("Samosas, pakoras, and sweets"), Latitude: 12.9352, Longitude: 77.6245,
				Address: "Indiranagar, Bangalore", Contact: "+919876543213", ExpiryTime: now.Add(5 * time.Hour)},
		}
		repo := NewListingRepo(tx)
		for i := range listings {
			l := &listings[i]
			l.Status, l.FoodCategory, l.CreatedAt, l.UpdatedAt = domain.ListingAvailable, veg, now, now
			if err := repo.Insert(ctx, l); err != nil {
				return err
			}
		}

		day := func(offset int) string { return now.AddDate(0, 0, -offset).Format("2006-01-02") }
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO analytics (day, total_listings, total_claims, total_completed, meals_saved, co2_reduced) VALUES
			  (?, 25, 20, 18, 450, 187.5),
			  (?, 30, 28, 26, 650, 270.8),
			  (?, 22, 20, 19, 475, 198.3)
			ON CONFLICT (day) DO NOTHING
		`), day(0), day(1), day(2)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

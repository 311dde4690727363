package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"foodloop/internal/domain"
	"foodloop/internal/repos"
	"foodloop/internal/services"
)

func user(t *testing.T, svc *services.ListingService, id string) *domain.User {
	t.Helper()
	u, err := repos.NewUserRepo(svc.DB).ByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return u
}

func newListingService(t *testing.T) *services.ListingService {
	t.Helper()
	db := seeded(t)
	return services.NewListingService(db, txTimeout, services.NewNotificationService(db, txTimeout))
}

func TestListAvailable_RadiusAndDistance(t *testing.T) {
	svc := newListingService(t)
	ctx := context.Background()
	taj := &domain.Point{Lat: 12.9716, Lon: 77.5946}

	all, err := svc.ListAvailable(ctx, services.ListingQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Fatalf("want 4 available listings, got %d", len(all))
	}
	for _, l := range all {
		if l.DistanceKm != nil {
			t.Fatalf("distance set without a center: %+v", l)
		}
		if l.TimeRemainingSeconds <= 0 || l.DonorName == "" {
			t.Fatalf("missing derived fields: %+v", l)
		}
	}

	near, err := svc.ListAvailable(ctx, services.ListingQuery{Center: taj, RadiusKm: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(near) != 2 {
		t.Fatalf("want the 2 listings at the donor's address, got %d", len(near))
	}
	for _, l := range near {
		if l.DonorID != "u-taj" || l.DistanceKm == nil || *l.DistanceKm > 0.001 {
			t.Fatalf("unexpected nearby listing: %+v", l)
		}
	}

	// Mehta's listings sit about 5.2 km away.
	wide, err := svc.ListAvailable(ctx, services.ListingQuery{Center: taj})
	if err != nil {
		t.Fatal(err)
	}
	if len(wide) != 4 {
		t.Fatalf("default 10 km radius: want 4, got %d", len(wide))
	}

	var ve *services.ValidationError
	if _, err := svc.ListAvailable(ctx, services.ListingQuery{Status: "gone"}); !errors.As(err, &ve) {
		t.Fatalf("want ValidationError for unknown status, got %v", err)
	}
	if _, err := svc.ListAvailable(ctx, services.ListingQuery{Center: &domain.Point{Lat: 91}}); !errors.As(err, &ve) {
		t.Fatalf("want ValidationError for bad latitude, got %v", err)
	}
}

func TestListAvailable_HidesExpiredAndClaimed(t *testing.T) {
	svc := newListingService(t)
	ctx := context.Background()
	claims := services.NewClaimService(svc.DB, txTimeout)
	if _, err := claims.Create(ctx, "l-snacks", "u-john", nil); err != nil {
		t.Fatal(err)
	}
	// l-veg-meals expires after 2h
	svc.Now = func() time.Time { return time.Now().Add(150 * time.Minute) }
	got, err := svc.ListAvailable(ctx, services.ListingQuery{})
	if err != nil {
		t.Fatal(err)
	}
	for _, l := range got {
		if l.ID == "l-snacks" || l.ID == "l-veg-meals" {
			t.Fatalf("listing %s should be hidden", l.ID)
		}
	}
	if len(got) != 2 {
		t.Fatalf("want 2 listings, got %d", len(got))
	}
}

func TestGetListing(t *testing.T) {
	svc := newListingService(t)
	ctx := context.Background()
	l, err := svc.Get(ctx, "l-paneer")
	if err != nil {
		t.Fatal(err)
	}
	if l.DonorEmail != "taj@restaurant.com" || l.DonorOrganization == nil || l.TimeRemainingSeconds <= 0 {
		t.Fatalf("unexpected listing view: %+v", l)
	}
	if _, err := svc.Get(ctx, "nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCreateListing_RolesAndValidation(t *testing.T) {
	svc := newListingService(t)
	ctx := context.Background()
	in := services.ListingInput{
		FoodType: "Bread", Quantity: "40 loaves", Latitude: 12.9716, Longitude: 77.5946,
		Address: "MG Road, Bangalore", Contact: "+91 98765 43210",
	}

	if _, err := svc.Create(ctx, user(t, svc, "u-john"), in); !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("volunteer creating listing: want ErrForbidden, got %v", err)
	}

	bad := in
	bad.FoodType, bad.ExpiryHours, bad.Latitude = " ", 100, -95
	_, err := svc.Create(ctx, user(t, svc, "u-taj"), bad)
	var ve *services.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	for _, f := range []string{"food_type", "expiry_hours", "latitude"} {
		if ve.Fields[f] == "" {
			t.Errorf("missing %s error in %+v", f, ve.Fields)
		}
	}

	before := time.Now()
	l, err := svc.Create(ctx, user(t, svc, "u-taj"), in)
	if err != nil {
		t.Fatal(err)
	}
	if l.Status != domain.ListingAvailable || l.Contact != "+919876543210" {
		t.Fatalf("unexpected listing: %+v", l)
	}
	if exp := l.ExpiryTime.Sub(before); exp < 2*time.Hour-time.Second || exp > 2*time.Hour+time.Second {
		t.Fatalf("default expiry should be 2h, got %v", exp)
	}

	// all three seeded receivers/volunteers are within 10 km of MG Road
	var notified int
	_ = svc.DB.Get(&notified, svc.DB.Rebind(`SELECT COUNT(*) FROM notifications WHERE related_listing_id = ? AND type = ?`),
		l.ID, domain.NotifyNewListing)
	if notified != 3 {
		t.Fatalf("want 3 nearby notifications, got %d", notified)
	}
}

func TestUpdateListing_Ownership(t *testing.T) {
	svc := newListingService(t)
	ctx := context.Background()
	qty := "45 servings"

	if _, err := svc.Update(ctx, "u-mehta", "l-veg-meals", services.ListingUpdate{Quantity: &qty}); !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if _, err := svc.Update(ctx, "u-taj", "missing", services.ListingUpdate{Quantity: &qty}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	claimed := domain.ListingClaimed
	var ve *services.ValidationError
	if _, err := svc.Update(ctx, "u-taj", "l-veg-meals", services.ListingUpdate{Status: &claimed}); !errors.As(err, &ve) {
		t.Fatalf("want ValidationError for status claimed, got %v", err)
	}

	got, err := svc.Update(ctx, "u-taj", "l-veg-meals", services.ListingUpdate{Quantity: &qty})
	if err != nil {
		t.Fatal(err)
	}
	if got.Quantity != qty || got.FoodType != "Mixed Vegetarian Meals" || got.Status != domain.ListingAvailable {
		t.Fatalf("partial update touched other fields: %+v", got)
	}

	cancelled := domain.ListingCancelled
	got, err = svc.Update(ctx, "u-taj", "l-veg-meals", services.ListingUpdate{Status: &cancelled})
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.ListingCancelled || got.Quantity != qty {
		t.Fatalf("unexpected listing after cancel: %+v", got)
	}
}

func TestUpdateListing_StatusOnlyFromAvailable(t *testing.T) {
	svc := newListingService(t)
	ctx := context.Background()
	claims := services.NewClaimService(svc.DB, txTimeout)

	done, err := claims.Create(ctx, "l-snacks", "u-john", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := claims.Complete(ctx, done.ID, "u-john", services.CompleteInput{}); err != nil {
		t.Fatal(err)
	}
	held, err := claims.Create(ctx, "l-home-cooked", "u-akshaya", nil)
	if err != nil {
		t.Fatal(err)
	}

	expired, cancelled := domain.ListingExpired, domain.ListingCancelled
	if _, err := svc.Update(ctx, "u-mehta", "l-snacks", services.ListingUpdate{Status: &expired}); !errors.Is(err, services.ErrNotAvailable) {
		t.Fatalf("completed listing: want ErrNotAvailable, got %v", err)
	}
	if _, err := svc.Update(ctx, "u-mehta", "l-home-cooked", services.ListingUpdate{Status: &cancelled}); !errors.Is(err, services.ErrNotAvailable) {
		t.Fatalf("claimed listing: want ErrNotAvailable, got %v", err)
	}
	if s := listingStatus(t, svc.DB, "l-snacks"); s != domain.ListingCompleted {
		t.Fatalf("completed listing changed to %s", s)
	}
	if s := listingStatus(t, svc.DB, "l-home-cooked"); s != domain.ListingClaimed {
		t.Fatalf("claimed listing changed to %s", s)
	}

	// text edits still apply to a claimed listing
	qty := "8 servings"
	got, err := svc.Update(ctx, "u-mehta", "l-home-cooked", services.ListingUpdate{Quantity: &qty})
	if err != nil {
		t.Fatal(err)
	}
	if got.Quantity != qty || got.Status != domain.ListingClaimed {
		t.Fatalf("unexpected listing %+v", got)
	}
	if _, err := claims.Complete(ctx, held.ID, "u-akshaya", services.CompleteInput{}); err != nil {
		t.Fatalf("claim on untouched listing should complete: %v", err)
	}
}

func TestDeleteListing_Cascades(t *testing.T) {
	svc := newListingService(t)
	ctx := context.Background()
	if _, err := services.NewClaimService(svc.DB, txTimeout).Create(ctx, "l-veg-meals", "u-john", nil); err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, "u-mehta", "l-veg-meals"); !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, "u-taj", "l-veg-meals"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, "l-veg-meals"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
	var claims, notes int
	_ = svc.DB.Get(&claims, `SELECT COUNT(*) FROM claims WHERE listing_id = 'l-veg-meals'`)
	_ = svc.DB.Get(&notes, `SELECT COUNT(*) FROM notifications WHERE related_listing_id = 'l-veg-meals'`)
	if claims != 0 || notes != 0 {
		t.Fatalf("dependents left behind: %d claims %d notifications", claims, notes)
	}
	if err := svc.Delete(ctx, "u-taj", "l-veg-meals"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestExpireStale(t *testing.T) {
	svc := newListingService(t)
	ctx := context.Background()
	svc.Now = func() time.Time { return time.Now().Add(270 * time.Minute) }
	n, err := svc.ExpireStale(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("want 3 expired listings, got %d", n)
	}
	if s := listingStatus(t, svc.DB, "l-snacks"); s != domain.ListingAvailable {
		t.Fatalf("l-snacks expires after 5h, got %s", s)
	}
	if s := listingStatus(t, svc.DB, "l-veg-meals"); s != domain.ListingExpired {
		t.Fatalf("l-veg-meals should be expired, got %s", s)
	}
}

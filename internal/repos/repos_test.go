package repos_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"foodloop/internal/domain"
	"foodloop/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenDBRejectsUnknownDriver(t *testing.T) {
	if _, err := repos.OpenDB("mysql", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestSeedDemoIsIdempotentAndHashed(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := repos.SeedDemo(ctx, db); err != nil {
			t.Fatalf("seed #%d: %v", i+1, err)
		}
	}
	var users, listings, days int
	_ = db.Get(&users, `SELECT COUNT(*) FROM users`)
	_ = db.Get(&listings, `SELECT COUNT(*) FROM listings`)
	_ = db.Get(&days, `SELECT COUNT(*) FROM analytics`)
	if users != 5 || listings != 4 || days != 3 {
		t.Fatalf("want 5 users/4 listings/3 days, got %d/%d/%d", users, listings, days)
	}

	u, err := repos.NewUserRepo(db).ByEmail(ctx, "taj@restaurant.com")
	if err != nil {
		t.Fatal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte("password123")); err != nil {
		t.Fatalf("seed hash does not validate demo password: %v", err)
	}
	if u.Organization == nil || *u.Organization != "Taj Restaurant" || !u.Verified {
		t.Fatalf("unexpected seeded user: %+v", u)
	}
}

func TestUniqueViolationNamesColumn(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	users := repos.NewUserRepo(db)
	now := time.Now().UTC()
	mk := func(id, email, phone string) *domain.User {
		return &domain.User{ID: id, Name: "N " + id, Email: email, Phone: phone, Hash: domain.PasswordManagedExternally,
			Role: domain.RoleDonor, CreatedAt: now, UpdatedAt: now}
	}
	if err := users.Create(ctx, mk("a", "a@x.com", "+911111111111")); err != nil {
		t.Fatal(err)
	}

	err := users.Create(ctx, mk("b", "b@x.com", "+911111111111"))
	if col, ok := repos.UniqueViolation(err); !ok || col != "phone" {
		t.Fatalf("want phone violation, got %q %v (%v)", col, ok, err)
	}
	err = users.Create(ctx, mk("c", "a@x.com", "+912222222222"))
	if col, ok := repos.UniqueViolation(err); !ok || col != "email" {
		t.Fatalf("want email violation, got %q %v (%v)", col, ok, err)
	}
	if _, ok := repos.UniqueViolation(errors.New("boom")); ok {
		t.Fatal("plain error reported as unique violation")
	}
	if _, err := users.ByEmail(ctx, "nobody@x.com"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("want sql.ErrNoRows, got %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	if err := repos.SeedDemo(ctx, db); err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")
	err := repos.WithTx(ctx, db, time.Second, func(tx *sqlx.Tx) error {
		ok, err := repos.NewListingRepo(tx).MarkClaimed(ctx, "l-paneer", time.Now().UTC())
		if err != nil || !ok {
			t.Fatalf("mark claimed: %v %v", ok, err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	l, err := repos.NewListingRepo(db).Get(ctx, "l-paneer")
	if err != nil {
		t.Fatal(err)
	}
	if l.Status != domain.ListingAvailable {
		t.Fatalf("status should roll back to available, got %s", l.Status)
	}
}

func TestMarkClaimedOnlyOnce(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	if err := repos.SeedDemo(ctx, db); err != nil {
		t.Fatal(err)
	}
	listings := repos.NewListingRepo(db)
	now := time.Now().UTC()
	if ok, err := listings.MarkClaimed(ctx, "l-snacks", now); err != nil || !ok {
		t.Fatalf("first claim: %v %v", ok, err)
	}
	if ok, err := listings.MarkClaimed(ctx, "l-snacks", now); err != nil || ok {
		t.Fatalf("second claim must not match: %v %v", ok, err)
	}
	// past expiry is not claimable either
	if ok, _ := listings.MarkClaimed(ctx, "l-paneer", now.Add(4*time.Hour)); ok {
		t.Fatal("expired listing was claimed")
	}
}

func TestRecordCompletionAccumulates(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	a := repos.NewAnalyticsRepo(db)
	for i := 0; i < 3; i++ {
		if err := a.RecordCompletion(ctx, "2026-01-02", domain.CO2PerMeal); err != nil {
			t.Fatal(err)
		}
	}
	d, err := a.Day(ctx, "2026-01-02")
	if err != nil {
		t.Fatal(err)
	}
	if d.TotalCompleted != 3 || d.MealsSaved != 3 || d.CO2Reduced < 1.259 || d.CO2Reduced > 1.261 {
		t.Fatalf("unexpected rollup: %+v", d)
	}
}

func TestNormalizeDSN(t *testing.T) {
	cases := map[string]string{
		`"postgres://u:p@h/db"`:            "postgres://u:p@h/db",
		"host=db   user=foo dbname=loop":   "host=db user=foo dbname=loop sslmode=disable",
		"host=db sslmode=require dbname=x": "host=db sslmode=require dbname=x",
		"":                                 "",
	}
	for in, want := range cases {
		if got := repos.NormalizeDSN(in); got != want {
			t.Errorf("NormalizeDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

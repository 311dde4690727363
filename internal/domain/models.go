package domain

import "time"

const (
	ListingAvailable = "available"
	ListingClaimed   = "claimed"
	ListingCompleted = "completed"
	ListingExpired   = "expired"
	ListingCancelled = "cancelled"
)

const (
	ClaimInProgress = "in-progress"
	ClaimCompleted  = "completed"
	ClaimCancelled  = "cancelled"
)

const (
	NotifyNewListing     = "new_listing"
	NotifyClaim          = "claim"
	NotifyClaimCancelled = "claim_cancelled"
)

const (
	// CO2PerMeal is added to the daily rollup for every completed claim.
	CO2PerMeal = 0.42

	DefaultExpiryHours = 2
	MaxExpiryHours     = 72
)

func ValidListingStatus(s string) bool {
	switch s {
	case ListingAvailable, ListingClaimed, ListingCompleted, ListingExpired, ListingCancelled:
		return true
	}
	return false
}

type Listing struct {
	ID           string    `db:"id" json:"id"`
	DonorID      string    `db:"donor_id" json:"donor_id"`
	FoodType     string    `db:"food_type" json:"food_type"`
	Quantity     string    `db:"quantity" json:"quantity"`
	Description  *string   `db:"description" json:"description,omitempty"`
	Latitude     float64   `db:"latitude" json:"latitude"`
	Longitude    float64   `db:"longitude" json:"longitude"`
	Address      string    `db:"address" json:"address"`
	Contact      string    `db:"contact" json:"contact"`
	ExpiryTime   time.Time `db:"expiry_time" json:"expiry_time"`
	Status       string    `db:"status" json:"status"`
	FoodCategory *string   `db:"food_category" json:"food_category,omitempty"`
	ImageURL     *string   `db:"image_url" json:"image_url,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ListingView is a listing joined with its donor, as shown to browsers.
type ListingView struct {
	Listing
	DonorName         string  `db:"donor_name" json:"donor_name"`
	DonorOrganization *string `db:"donor_organization" json:"donor_organization,omitempty"`
	DonorPhone        string  `db:"donor_phone" json:"donor_phone"`
	DonorEmail        string  `db:"donor_email" json:"donor_email,omitempty"`

	DistanceKm           *float64 `db:"-" json:"distance_km,omitempty"`
	TimeRemainingSeconds int64    `db:"-" json:"time_remaining_seconds"`
}

type Claim struct {
	ID          string     `db:"id" json:"id"`
	ListingID   string     `db:"listing_id" json:"listing_id"`
	ClaimerID   string     `db:"claimer_id" json:"claimer_id"`
	ClaimedAt   time.Time  `db:"claimed_at" json:"claimed_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	Status      string     `db:"status" json:"status"` // in-progress | completed | cancelled
	ProofURL    *string    `db:"proof_url" json:"proof_url,omitempty"`
	Notes       *string    `db:"notes" json:"notes,omitempty"`
	Rating      *int       `db:"rating" json:"rating,omitempty"`
	Feedback    *string    `db:"feedback" json:"feedback,omitempty"`
}

// ClaimView is a claim with the listing and donor details a claimer needs for pickup.
type ClaimView struct {
	Claim
	FoodType    string  `db:"food_type" json:"food_type"`
	Quantity    string  `db:"quantity" json:"quantity"`
	Description *string `db:"description" json:"description,omitempty"`
	Address     string  `db:"address" json:"address"`
	Contact     string  `db:"contact" json:"contact"`
	Latitude    float64 `db:"latitude" json:"latitude"`
	Longitude   float64 `db:"longitude" json:"longitude"`
	DonorName   string  `db:"donor_name" json:"donor_name"`
	DonorPhone  string  `db:"donor_phone" json:"donor_phone"`
}

type Notification struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	Title            string    `db:"title" json:"title"`
	Message          string    `db:"message" json:"message"`
	Type             string    `db:"type" json:"type"`
	Read             bool      `db:"read" json:"read"`
	RelatedListingID *string   `db:"related_listing_id" json:"related_listing_id,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

type DailyAnalytics struct {
	Day            string  `db:"day" json:"date"` // YYYY-MM-DD, UTC
	TotalListings  int     `db:"total_listings" json:"total_listings"`
	TotalClaims    int     `db:"total_claims" json:"total_claims"`
	TotalCompleted int     `db:"total_completed" json:"total_completed"`
	MealsSaved     int     `db:"meals_saved" json:"meals_saved"`
	CO2Reduced     float64 `db:"co2_reduced" json:"co2_reduced"`
}

type AnalyticsOverview struct {
	TotalMealsSaved     int     `db:"meals_saved" json:"total_meals_saved"`
	TotalCompleted      int     `db:"total_completed" json:"total_completed"`
	ActivePartners      int     `db:"active_donors" json:"active_partners"`
	CompletedDeliveries int     `db:"total_claims" json:"completed_deliveries"`
	CO2Reduced          float64 `db:"co2_reduced" json:"co2_reduced"`
}

package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"foodloop/internal/domain"
	applog "foodloop/internal/log"
	"foodloop/internal/services"
	"foodloop/internal/validate"
)

type ListingHandler struct {
	Listings *services.ListingService
}

type createListingRequest struct {
	FoodType     string  `json:"food_type"`
	Quantity     string  `json:"quantity"`
	Description  *string `json:"description"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	Address      string  `json:"address"`
	Contact      string  `json:"contact"`
	ExpiryHours  float64 `json:"expiry_hours"`
	FoodCategory *string `json:"food_category"`
	ImageURL     *string `json:"image_url"`
}

type updateListingRequest struct {
	Status      *string `json:"status"`
	FoodType    *string `json:"food_type"`
	Quantity    *string `json:"quantity"`
	Description *string `json:"description"`
}

// List serves GET /api/listings?latitude=&longitude=&radius=&status=.
// The distance filter applies only when both coordinates are given.
func (h *ListingHandler) List(c *fiber.Ctx) error {
	v := validate.Violations{}
	num := func(key string) (float64, bool) {
		raw := strings.TrimSpace(c.Query(key))
		if raw == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			v.Add(key, key+" must be a number")
			return 0, false
		}
		return f, true
	}

	q := services.ListingQuery{Status: strings.TrimSpace(c.Query("status"))}
	lat, hasLat := num("latitude")
	lon, hasLon := num("longitude")
	if hasLat && hasLon {
		q.Center = &domain.Point{Lat: lat, Lon: lon}
	}
	q.RadiusKm, _ = num("radius")
	if !v.Empty() {
		return fail(c, "listing.list", &services.ValidationError{Fields: v})
	}

	listings, err := h.Listings.ListAvailable(c.UserContext(), q)
	if err != nil {
		return fail(c, "listing.list", err)
	}
	return c.JSON(fiber.Map{"listings": listings})
}

func (h *ListingHandler) Get(c *fiber.Ctx) error {
	l, err := h.Listings.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, "listing.get", err)
	}
	return c.JSON(fiber.Map{"listing": l})
}

func (h *ListingHandler) Create(c *fiber.Ctx) error {
	var req createListingRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, "listing.create")
	}
	l, err := h.Listings.Create(c.UserContext(), currentUser(c), services.ListingInput(req))
	if err != nil {
		return fail(c, "listing.create", err)
	}
	applog.Audit(c, "listing.create", map[string]any{"listing_id": l.ID, "expiry_time": l.ExpiryTime})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"listing": l})
}

func (h *ListingHandler) Update(c *fiber.Ctx) error {
	var req updateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, "listing.update")
	}
	l, err := h.Listings.Update(c.UserContext(), currentUser(c).ID, c.Params("id"), services.ListingUpdate(req))
	if err != nil {
		return fail(c, "listing.update", err)
	}
	applog.Audit(c, "listing.update", map[string]any{"listing_id": l.ID, "status": l.Status})
	return c.JSON(fiber.Map{"listing": l})
}

func (h *ListingHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Listings.Delete(c.UserContext(), currentUser(c).ID, id); err != nil {
		return fail(c, "listing.delete", err)
	}
	applog.Audit(c, "listing.delete", map[string]any{"listing_id": id})
	return c.JSON(fiber.Map{"message": "Listing deleted successfully"})
}

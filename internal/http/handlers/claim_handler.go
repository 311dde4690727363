package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "foodloop/internal/log"
	"foodloop/internal/services"
)

type ClaimHandler struct {
	Claims *services.ClaimService
}

type createClaimRequest struct {
	ListingID string  `json:"listing_id"`
	Notes     *string `json:"notes"`
}

type completeClaimRequest struct {
	ProofURL *string `json:"proof_url"`
	Rating   *int    `json:"rating"`
	Feedback *string `json:"feedback"`
}

func (h *ClaimHandler) Create(c *fiber.Ctx) error {
	var req createClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, "claim.create")
	}
	claim, err := h.Claims.Create(c.UserContext(), req.ListingID, currentUser(c).ID, req.Notes)
	if err != nil {
		return fail(c, "claim.create", err)
	}
	applog.Audit(c, "claim.create", map[string]any{"claim_id": claim.ID, "listing_id": claim.ListingID})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"claim": claim})
}

func (h *ClaimHandler) Mine(c *fiber.Ctx) error {
	claims, err := h.Claims.MyClaims(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return fail(c, "claim.list", err)
	}
	return c.JSON(fiber.Map{"claims": claims})
}

func (h *ClaimHandler) Complete(c *fiber.Ctx) error {
	var req completeClaimRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c, "claim.complete")
		}
	}
	claim, err := h.Claims.Complete(c.UserContext(), c.Params("id"), currentUser(c).ID, services.CompleteInput(req))
	if err != nil {
		return fail(c, "claim.complete", err)
	}
	applog.Audit(c, "claim.complete", map[string]any{"claim_id": claim.ID, "listing_id": claim.ListingID})
	return c.JSON(fiber.Map{"claim": claim})
}

func (h *ClaimHandler) Cancel(c *fiber.Ctx) error {
	claim, err := h.Claims.Cancel(c.UserContext(), c.Params("id"), currentUser(c).ID)
	if err != nil {
		return fail(c, "claim.cancel", err)
	}
	applog.Audit(c, "claim.cancel", map[string]any{"claim_id": claim.ID, "listing_id": claim.ListingID})
	return c.JSON(fiber.Map{"claim": claim})
}

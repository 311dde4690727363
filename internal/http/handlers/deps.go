package handlers

import (
	"github.com/jmoiron/sqlx"

	"foodloop/internal/config"
	"foodloop/internal/identity"
	"foodloop/internal/services"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler         *AuthHandler
	ListingHandler      *ListingHandler
	ClaimHandler        *ClaimHandler
	NotificationHandler *NotificationHandler
	AnalyticsHandler    *AnalyticsHandler
	HealthHandler       *HealthHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, verifier identity.Verifier) *Deps {
	authSvc := services.NewAuthService(db, verifier)
	notifySvc := services.NewNotificationService(db, cfg.TxTimeout)
	listingSvc := services.NewListingService(db, cfg.TxTimeout, notifySvc)
	claimSvc := services.NewClaimService(db, cfg.TxTimeout)
	analyticsSvc := services.NewAnalyticsService(db)

	return &Deps{
		Auth:                authSvc,
		AuthHandler:         &AuthHandler{Auth: authSvc},
		ListingHandler:      &ListingHandler{Listings: listingSvc},
		ClaimHandler:        &ClaimHandler{Claims: claimSvc},
		NotificationHandler: &NotificationHandler{Notifications: notifySvc},
		AnalyticsHandler:    &AnalyticsHandler{Analytics: analyticsSvc},
		HealthHandler:       &HealthHandler{DB: db},
	}
}

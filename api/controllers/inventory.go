package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/showrunner-backend/api/middleware"
	"github.com/angelmondragon/showrunner-backend/api/responses"
	"github.com/angelmondragon/showrunner-backend/api/validators"
	"github.com/angelmondragon/showrunner-backend/internal/inventory"
	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	"github.com/angelmondragon/showrunner-backend/pkg/logger"
)

const itemIDParam = "itemId"

type itemDTO struct {
	ID         uuid.UUID             `json:"id"`
	Name       string                `json:"name"`
	CostBasis  decimal.Decimal       `json:"costBasis"`
	AcquiredAt *time.Time            `json:"acquiredAt,omitempty"`
	Lifecycle  enums.LifecycleStatus `json:"lifecycle"`
}

type itemTransition func(ctx context.Context, userID, itemID uuid.UUID) (*models.InventoryItem, error)

func itemScope(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	userID, err := middleware.UserUUID(r.Context())
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	itemID, err := validators.PathUUID(r, itemIDParam)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, itemID, nil
}

func InventoryArchive(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return inventoryTransition(svc.Archive, logg)
}

func InventoryRestore(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return inventoryTransition(svc.Restore, logg)
}

func inventoryTransition(move itemTransition, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, itemID, err := itemScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item, err := move(r.Context(), userID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, itemDTO{
			ID:         item.ID,
			Name:       item.Name,
			CostBasis:  item.CostBasis,
			AcquiredAt: item.AcquiredAt,
			Lifecycle:  item.Lifecycle,
		})
	}
}

// InventoryDelete removes an archived item.
func InventoryDelete(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, itemID, err := itemScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), userID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

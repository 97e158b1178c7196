package controllers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/showrunner-backend/api/middleware"
	"github.com/angelmondragon/showrunner-backend/api/responses"
	"github.com/angelmondragon/showrunner-backend/api/validators"
	"github.com/angelmondragon/showrunner-backend/internal/sessions"
	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
	"github.com/angelmondragon/showrunner-backend/pkg/logger"
)

const sessionIDParam = "sessionId"

type sessionDTO struct {
	ID               uuid.UUID           `json:"id"`
	Title            string              `json:"title"`
	SessionDate      time.Time           `json:"sessionDate"`
	Platform         enums.Platform      `json:"platform"`
	ShowType         enums.ShowType      `json:"showType"`
	Status           enums.SessionStatus `json:"status"`
	EstimatedFeeRate decimal.Decimal     `json:"estimatedFeeRate"`
	FinalizedAt      *time.Time          `json:"finalizedAt,omitempty"`
	ReconciledAt     *time.Time          `json:"reconciledAt,omitempty"`
}

func toSessionDTO(s *models.Session) sessionDTO {
	return sessionDTO{
		ID:               s.ID,
		Title:            s.Title,
		SessionDate:      s.SessionDate,
		Platform:         s.Platform,
		ShowType:         s.ShowType,
		Status:           s.Status,
		EstimatedFeeRate: s.EstimatedFeeRate,
		FinalizedAt:      s.FinalizedAt,
		ReconciledAt:     s.ReconciledAt,
	}
}

type sessionItemDTO struct {
	ID         uuid.UUID        `json:"id"`
	ItemID     uuid.UUID        `json:"itemId"`
	ItemNumber int              `json:"itemNumber"`
	Position   int              `json:"position"`
	AddedVia   enums.ItemSource `json:"addedVia"`
}

type addItemRequest struct {
	ItemID   string `json:"itemId" validate:"required,uuid"`
	AddedVia string `json:"addedVia,omitempty"`
}

// sessionScope resolves the caller and the session id path parameter.
func sessionScope(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	userID, err := middleware.UserUUID(r.Context())
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	sessionID, err := validators.PathUUID(r, sessionIDParam)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return userID, sessionID, nil
}

func SessionFinalize(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionTransition(svc.Finalize, logg)
}

func SessionUnfinalize(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return sessionTransition(svc.Unfinalize, logg)
}

type transitionFunc func(ctx context.Context, userID, sessionID uuid.UUID) (*models.Session, error)

func sessionTransition(move transitionFunc, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, sessionID, err := sessionScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess, err := move(r.Context(), userID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toSessionDTO(sess))
	}
}

// SessionAddItem appends an inventory item to a draft run list.
func SessionAddItem(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, sessionID, err := sessionScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := uuid.Parse(strings.TrimSpace(payload.ItemID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid itemId"))
			return
		}
		via := enums.ItemSourceManual
		if payload.AddedVia != "" {
			if via, err = enums.ParseItemSource(strings.TrimSpace(payload.AddedVia)); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid addedVia"))
				return
			}
		}

		item, err := svc.AddItem(r.Context(), userID, sessionID, itemID, via)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sessionItemDTO{
			ID:         item.ID,
			ItemID:     item.ItemID,
			ItemNumber: item.ItemNumber,
			Position:   item.Position,
			AddedVia:   item.AddedVia,
		})
	}
}

func SessionRemoveItem(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, sessionID, err := sessionScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionItemID, err := validators.PathUUID(r, "sessionItemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveItem(r.Context(), userID, sessionID, sessionItemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SessionBreakeven runs the breakeven calculator over the session's plan.
func SessionBreakeven(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, sessionID, err := sessionScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := svc.Breakeven(r.Context(), userID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res.Rounded())
	}
}

func SessionBreakEconomics(svc sessions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, sessionID, err := sessionScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := svc.BreakEconomics(r.Context(), userID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, res)
	}
}

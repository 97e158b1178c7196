// Package inventory guards the lifecycle of inventory items.
package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/showrunner-backend/pkg/db/models"
	"github.com/angelmondragon/showrunner-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/showrunner-backend/pkg/errors"
)

type itemRepository interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*models.InventoryItem, error)
	UpdateLifecycle(ctx context.Context, id uuid.UUID, from, to enums.LifecycleStatus) error
	DeleteArchived(ctx context.Context, id uuid.UUID) error
}

// Service exposes inventory lifecycle transitions.
type Service interface {
	Archive(ctx context.Context, userID, itemID uuid.UUID) (*models.InventoryItem, error)
	Restore(ctx context.Context, userID, itemID uuid.UUID) (*models.InventoryItem, error)
	MarkSold(ctx context.Context, userID, itemID uuid.UUID) (*models.InventoryItem, error)
	Delete(ctx context.Context, userID, itemID uuid.UUID) error
}

type service struct {
	repo itemRepository
}

// NewService builds an inventory service.
func NewService(repo itemRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Archive(ctx context.Context, userID, itemID uuid.UUID) (*models.InventoryItem, error) {
	return s.transition(ctx, userID, itemID, enums.LifecycleStatusArchived)
}

func (s *service) Restore(ctx context.Context, userID, itemID uuid.UUID) (*models.InventoryItem, error) {
	return s.transition(ctx, userID, itemID, enums.LifecycleStatusActive)
}

func (s *service) MarkSold(ctx context.Context, userID, itemID uuid.UUID) (*models.InventoryItem, error) {
	return s.transition(ctx, userID, itemID, enums.LifecycleStatusSold)
}

func (s *service) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.repo.Get(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if item.Lifecycle != enums.LifecycleStatusArchived {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only archived items can be deleted").
			WithDetails(map[string]any{"lifecycle": item.Lifecycle})
	}
	return s.repo.DeleteArchived(ctx, itemID)
}

func (s *service) transition(ctx context.Context, userID, itemID uuid.UUID, to enums.LifecycleStatus) (*models.InventoryItem, error) {
	item, err := s.repo.Get(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	from := item.Lifecycle
	if !from.CanTransitionTo(to) {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move item from %s to %s", from, to).
			WithDetails(map[string]any{"from": from, "to": to})
	}
	if err := s.repo.UpdateLifecycle(ctx, itemID, from, to); err != nil {
		return nil, err
	}
	item.Lifecycle = to
	return item, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"calendar-scheduler/internal/model"
)

// LifecycleService governs the confirm/unconfirm state machine. Confirming
// an event is the one user action the automated scheduler must respect: a
// confirmed placement is never moved, resized or deleted by a run.
type LifecycleService struct {
	events EventStatusStore
	perms  PermissionChecker
	log    zerolog.Logger
}

func NewLifecycleService(events EventStatusStore, perms PermissionChecker, log zerolog.Logger) *LifecycleService {
	return &LifecycleService{
		events: events,
		perms:  perms,
		log:    log.With().Str("component", "lifecycle").Logger(),
	}
}

// Confirm locks an event against automated movement. Only the creator may
// confirm, from draft or active. The status write is conditional on the
// status read here, so a racing writer surfaces as ErrConflict rather than
// being silently overwritten.
func (s *LifecycleService) Confirm(ctx context.Context, eventID, actingUserID uint) (*model.ScheduledEvent, error) {
	ev, err := s.loadAuthorized(ctx, eventID, actingUserID)
	if err != nil {
		return nil, err
	}
	if ev.Status == model.StatusConfirmed {
		return nil, ErrAlreadyConfirmed
	}

	ok, err := s.events.UpdateStatusIf(ctx, eventID, ev.Status, model.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("confirm event %d: %w", eventID, err)
	}
	if !ok {
		return nil, ErrConflict
	}

	ev.Status = model.StatusConfirmed
	s.log.Info().Uint("event", eventID).Uint("user", actingUserID).Msg("event confirmed")
	return ev, nil
}

// Unconfirm returns a confirmed event to active, making it movable again.
func (s *LifecycleService) Unconfirm(ctx context.Context, eventID, actingUserID uint) (*model.ScheduledEvent, error) {
	ev, err := s.loadAuthorized(ctx, eventID, actingUserID)
	if err != nil {
		return nil, err
	}
	if ev.Status != model.StatusConfirmed {
		return nil, ErrNotConfirmed
	}

	ok, err := s.events.UpdateStatusIf(ctx, eventID, model.StatusConfirmed, model.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("unconfirm event %d: %w", eventID, err)
	}
	if !ok {
		return nil, ErrConflict
	}

	ev.Status = model.StatusActive
	s.log.Info().Uint("event", eventID).Uint("user", actingUserID).Msg("event unconfirmed")
	return ev, nil
}

func (s *LifecycleService) loadAuthorized(ctx context.Context, eventID, actingUserID uint) (*model.ScheduledEvent, error) {
	ev, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("load event %d: %w", eventID, err)
	}
	if ev.CreatorID != actingUserID {
		return nil, ErrNotCreator
	}
	allowed, err := s.perms.CanManageCalendar(ctx, actingUserID, ev.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("check permission: %w", err)
	}
	if !allowed {
		return nil, ErrNotPermitted
	}
	return ev, nil
}

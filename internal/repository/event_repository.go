package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"calendar-scheduler/internal/model"
)

// EventRepository persists scheduled events and reads fixed calendar blocks.
type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListScheduledInWindow returns every scheduled event for the workspace
// that overlaps [from, to), regardless of status.
func (r *EventRepository) ListScheduledInWindow(ctx context.Context, workspaceID uint, from, to time.Time) ([]model.ScheduledEvent, error) {
	var events []model.ScheduledEvent
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND start_at < ? AND end_at > ?", workspaceID, to, from).
		Order("start_at ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list scheduled events: %w", err)
	}
	return events, nil
}

// ListFixedInWindow returns the workspace's fixed blocks overlapping [from, to).
func (r *EventRepository) ListFixedInWindow(ctx context.Context, workspaceID uint, from, to time.Time) ([]model.FixedEvent, error) {
	var events []model.FixedEvent
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND start_at < ? AND end_at > ?", workspaceID, to, from).
		Order("start_at ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list fixed events: %w", err)
	}
	return events, nil
}

// ApplyPlan removes and creates scheduled events in one transaction, so a
// run either lands completely or leaves the calendar untouched.
func (r *EventRepository) ApplyPlan(ctx context.Context, create, remove []model.ScheduledEvent) error {
	if len(create) == 0 && len(remove) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ev := range remove {
			if err := tx.Delete(&model.ScheduledEvent{}, ev.ID).Error; err != nil {
				return fmt.Errorf("remove event %d: %w", ev.ID, err)
			}
		}
		for i := range create {
			if err := tx.Create(&create[i]).Error; err != nil {
				return fmt.Errorf("create event for %s %d: %w", create[i].OwnerType, create[i].OwnerID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply plan: %w", err)
	}
	return nil
}

func (r *EventRepository) FindByID(ctx context.Context, eventID uint) (*model.ScheduledEvent, error) {
	var event model.ScheduledEvent
	if err := r.db.WithContext(ctx).First(&event, eventID).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateStatusIf flips the event's status only when it still holds the
// previously-read value. It reports false when another writer got there
// first, which callers surface as a concurrency conflict.
func (r *EventRepository) UpdateStatusIf(ctx context.Context, eventID uint, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.ScheduledEvent{}).
		Where("id = ? AND status = ?", eventID, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("update event status: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *EventRepository) CreateFixed(ctx context.Context, event *model.FixedEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create fixed event: %w", err)
	}
	return nil
}

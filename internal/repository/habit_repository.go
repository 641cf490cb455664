package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"calendar-scheduler/internal/model"
)

// HabitRepository reads habit definitions for the scheduler. Habits are
// edited elsewhere in the platform; this side only consumes them.
type HabitRepository struct {
	db *gorm.DB
}

func NewHabitRepository(db *gorm.DB) *HabitRepository {
	return &HabitRepository{db: db}
}

// ListAutoSchedulable returns the workspace's active habits that opted into
// automatic placement.
func (r *HabitRepository) ListAutoSchedulable(ctx context.Context, workspaceID uint) ([]model.Habit, error) {
	var habits []model.Habit
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND is_active = ? AND auto_schedule = ?", workspaceID, true, true).
		Order("id ASC").
		Find(&habits).Error; err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

func (r *HabitRepository) Create(ctx context.Context, habit *model.Habit) error {
	if err := r.db.WithContext(ctx).Create(habit).Error; err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

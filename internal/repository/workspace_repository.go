package repository

import (
	"context"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"calendar-scheduler/internal/model"
)

// WorkspaceRepository discovers workspaces for the batch coordinator.
type WorkspaceRepository struct {
	db *gorm.DB
}

func NewWorkspaceRepository(db *gorm.DB) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

func (r *WorkspaceRepository) FindByID(ctx context.Context, workspaceID uint) (*model.Workspace, error) {
	var ws model.Workspace
	if err := r.db.WithContext(ctx).First(&ws, workspaceID).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

// ListAutoSchedulable returns the distinct ids of workspaces holding at
// least one active auto-schedulable habit or one open auto-schedulable
// task, in ascending order.
func (r *WorkspaceRepository) ListAutoSchedulable(ctx context.Context) ([]uint, error) {
	db := r.db.WithContext(ctx)

	var habitWS []uint
	if err := db.Model(&model.Habit{}).
		Where("is_active = ? AND auto_schedule = ?", true, true).
		Distinct("workspace_id").
		Pluck("workspace_id", &habitWS).Error; err != nil {
		return nil, fmt.Errorf("list habit workspaces: %w", err)
	}

	var taskWS []uint
	if err := db.Model(&model.Task{}).
		Where("auto_schedule = ? AND is_completed = ? AND archived_at IS NULL", true, false).
		Distinct("workspace_id").
		Pluck("workspace_id", &taskWS).Error; err != nil {
		return nil, fmt.Errorf("list task workspaces: %w", err)
	}

	seen := make(map[uint]bool, len(habitWS)+len(taskWS))
	var out []uint
	for _, id := range append(habitWS, taskWS...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

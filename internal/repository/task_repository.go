package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"calendar-scheduler/internal/model"
)

// TaskRepository reads task definitions for the scheduler.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ListAutoSchedulable returns open, unarchived tasks that opted into
// automatic placement for the workspace.
func (r *TaskRepository) ListAutoSchedulable(ctx context.Context, workspaceID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("workspace_id = ? AND auto_schedule = ? AND is_completed = ? AND archived_at IS NULL", workspaceID, true, false).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task %q: %w", task.Title, err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, workspaceID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("workspace_id = ? AND id = ?", workspaceID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

package storage

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// OutboxRepo stores pending search index writes.
type OutboxRepo struct {
	db *gorm.DB
}

// Enqueue records tasks as due now. Call it in the transaction that changes the rows.
func (r *OutboxRepo) Enqueue(ctx context.Context, tasks ...*IndexTask) error {
	if len(tasks) == 0 {
		return nil
	}
	now := time.Now()
	for _, task := range tasks {
		if task.NextAttemptAt.IsZero() {
			task.NextAttemptAt = now
		}
	}
	return translate(r.db.WithContext(ctx).Create(tasks).Error)
}

// Due returns up to limit tasks whose next attempt is at or before now, oldest first.
func (r *OutboxRepo) Due(ctx context.Context, now time.Time, limit int) ([]IndexTask, error) {
	var tasks []IndexTask
	err := r.db.WithContext(ctx).
		Where("next_attempt_at <= ?", now).
		Order("id").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, translate(err)
	}
	return tasks, nil
}

// Done removes a delivered task.
func (r *OutboxRepo) Done(ctx context.Context, id uint) error {
	return translate(r.db.WithContext(ctx).Delete(&IndexTask{}, id).Error)
}

// Reschedule records a failed attempt and pushes the task to next.
func (r *OutboxRepo) Reschedule(ctx context.Context, task *IndexTask, cause error, next time.Time) error {
	task.Attempts++
	task.NextAttemptAt = next
	if cause != nil {
		task.LastError = cause.Error()
	}
	err := r.db.WithContext(ctx).Model(task).Updates(map[string]any{
		"attempts":        task.Attempts,
		"last_error":      task.LastError,
		"next_attempt_at": task.NextAttemptAt,
	}).Error
	return translate(err)
}

// Pending counts every task still waiting for delivery.
func (r *OutboxRepo) Pending(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&IndexTask{}).Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

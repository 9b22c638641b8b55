package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ActionRecord is one processed webhook action. The action id is the
// synthesized idempotency key; the unique index is what makes repeated
// deliveries of the same notification no-ops.
type ActionRecord struct {
	ID        int64     `gorm:"primaryKey"`
	ActionID  string    `gorm:"column:action_id;uniqueIndex;not null"`
	EntryID   int64     `gorm:"column:entry_id;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

func (ActionRecord) TableName() string {
	return "action_log"
}

type ActionLogRepository struct {
	db *gorm.DB
}

func NewActionLogRepository(db *gorm.DB) *ActionLogRepository {
	return &ActionLogRepository{db: db}
}

// Record inserts the action id, reporting false when it was already
// seen. The conflict clause keeps the check-and-insert atomic under
// concurrent webhook retries.
func (r *ActionLogRepository) Record(ctx context.Context, actionID string, entryID int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "action_id"}}, DoNothing: true}).
		Create(&ActionRecord{ActionID: actionID, EntryID: entryID})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

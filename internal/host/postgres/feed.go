package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/formbridge/mollie-gateway/internal/core/datamodel/feed"
	"github.com/formbridge/mollie-gateway/internal/core/datamodel/form"
)

type FeedRepository struct {
	db *gorm.DB
}

func NewFeedRepository(db *gorm.DB) *FeedRepository {
	return &FeedRepository{db: db}
}

func (r *FeedRepository) GetFeed(ctx context.Context, id int64) (*feed.Feed, error) {
	var fd feed.Feed
	if err := r.db.WithContext(ctx).First(&fd, id).Error; err != nil {
		return nil, err
	}
	return &fd, nil
}

// GetActiveFeed returns the form's active payment feed. One active feed
// per form; when several exist the oldest wins, matching feed ordering
// in the host admin.
func (r *FeedRepository) GetActiveFeed(ctx context.Context, formID int64) (*feed.Feed, error) {
	var fd feed.Feed
	err := r.db.WithContext(ctx).
		Where("form_id = ? AND active = ?", formID, true).
		Order("id ASC").
		First(&fd).Error
	if err != nil {
		return nil, err
	}
	return &fd, nil
}

type FormRepository struct {
	db *gorm.DB
}

func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{db: db}
}

func (r *FormRepository) GetForm(ctx context.Context, id int64) (*form.Form, error) {
	var f form.Form
	if err := r.db.WithContext(ctx).First(&f, id).Error; err != nil {
		return nil, err
	}
	return &f, nil
}

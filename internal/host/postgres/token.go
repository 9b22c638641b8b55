package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/formbridge/mollie-gateway/internal/mollie"
)

// storedToken is the single persisted OAuth credential. One row per
// deployment; reconnecting the Mollie account overwrites it.
type storedToken struct {
	ID           int64     `gorm:"primaryKey"`
	AccessToken  string    `gorm:"column:access_token;not null"`
	RefreshToken string    `gorm:"column:refresh_token;not null"`
	ExpiresIn    int64     `gorm:"column:expires_in;not null"`
	TimeCreated  int64     `gorm:"column:time_created;not null"`
	UpdatedAt    time.Time `gorm:"column:updated_at;default:now()"`
}

func (storedToken) TableName() string {
	return "oauth_tokens"
}

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Load(ctx context.Context) (*mollie.Token, error) {
	var row storedToken
	err := r.db.WithContext(ctx).First(&row, int64(1)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mollie.Token{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		ExpiresIn:    row.ExpiresIn,
		TimeCreated:  row.TimeCreated,
	}, nil
}

func (r *TokenRepository) Save(ctx context.Context, token *mollie.Token) error {
	row := storedToken{
		ID:           1,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    token.ExpiresIn,
		TimeCreated:  token.TimeCreated,
		UpdatedAt:    time.Now(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true}).
		Create(&row).Error
}

func (r *TokenRepository) Delete(ctx context.Context) error {
	return r.db.WithContext(ctx).Delete(&storedToken{}, int64(1)).Error
}

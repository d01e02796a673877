package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MuhamadAgungGumelar/card-ledger-be/internal/modules/ledger/models"
)

type SettingsRepo interface {
	// Get returns the settings row, creating it with defaults on first use.
	Get(ctx context.Context) (*models.Settings, error)
	Save(ctx context.Context, settings *models.Settings) error
}

type settingsRepo struct {
	db *gorm.DB
}

func NewSettingsRepo(db *gorm.DB) SettingsRepo {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Get(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	err := r.db.WithContext(ctx).First(&settings, "id = ?", models.SettingsID).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	defaults := models.DefaultSettings()
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(defaults).Error; err != nil {
		return nil, err
	}
	return defaults, nil
}

func (r *settingsRepo) Save(ctx context.Context, settings *models.Settings) error {
	settings.ID = models.SettingsID
	return r.db.WithContext(ctx).Save(settings).Error
}

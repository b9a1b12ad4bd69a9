package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/camden-git/facenotebackend/models"
)

// SettingsRepository handles persistence of the quiz settings singleton
type SettingsRepository struct {
	DB *gorm.DB
}

// NewSettingsRepository creates a new instance of SettingsRepository
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{DB: db}
}

// Load returns the saved quiz settings, or the built-in defaults if none
// have ever been saved
func (r *SettingsRepository) Load() (models.QuizSetting, error) {
	var setting models.QuizSetting
	err := r.DB.First(&setting, "id = ?", models.QuizSettingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.DefaultQuizSetting(), nil
	}
	if err != nil {
		return models.QuizSetting{}, fmt.Errorf("failed to load quiz settings: %w", err)
	}
	return setting, nil
}

// Save overwrites the quiz settings singleton wholesale
func (r *SettingsRepository) Save(setting models.QuizSetting) error {
	setting.ID = models.QuizSettingID
	if setting.AutoPromotion == "" {
		setting.AutoPromotion = models.AutoPromotionOff
	}

	err := r.DB.Clauses(clause.OnConflict{UpdateAll: true}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to save quiz settings: %w", err)
	}
	return nil
}

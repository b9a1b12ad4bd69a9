package models

// Quiz modes.
const (
	ModeFaceToName = "face-to-name"
	ModeNameToFace = "name-to-face"
)

// AutoPromotionOff disables streak-based state promotion; the other legal
// values are the numeric strings "2", "3" and "4".
const AutoPromotionOff = "off"

// QuizSettingID is the fixed key of the settings singleton row.
const QuizSettingID = "current"

// QuizSetting is the persisted quiz configuration. A single row keyed by
// QuizSettingID is lazily created with defaults on first read.
type QuizSetting struct {
	ID            string `gorm:"primaryKey" json:"-"`
	Mode          string `gorm:"not null" json:"mode"`
	AutoPromotion string `gorm:"not null" json:"auto_promotion"`
}

// TableName explicitly sets the table name for GORM.
func (QuizSetting) TableName() string {
	return "quiz_settings"
}

// DefaultQuizSetting returns the built-in configuration used before any
// settings have been saved.
func DefaultQuizSetting() QuizSetting {
	return QuizSetting{
		ID:            QuizSettingID,
		Mode:          ModeFaceToName,
		AutoPromotion: AutoPromotionOff,
	}
}

package models

// MemorizationState tracks how well a person's name and face are recalled.
type MemorizationState string

const (
	StateUntried   MemorizationState = "untried"
	StateLearning  MemorizationState = "learning"
	StateMemorized MemorizationState = "memorized"
)

// Person represents a registered person using GORM.
// It corresponds to the 'people' table.
type Person struct {
	ID    string `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Group string `gorm:"column:group_name;index" json:"group,omitempty"`
	Memo  string `json:"memo,omitempty"`
	// base64 data URL produced by the media package; empty means no photo
	Photo     string            `json:"photo"`
	State     MemorizationState `gorm:"not null;default:untried" json:"memorization_state"`
	Streak    int               `gorm:"not null;default:0" json:"streak"`
	CreatedAt int64             `gorm:"not null" json:"created_at"` // Stored as INTEGER in SQLite, Unix timestamp
	UpdatedAt int64             `gorm:"not null" json:"updated_at"` // Stored as INTEGER in SQLite, Unix timestamp
}

// TableName explicitly sets the table name for GORM.
func (Person) TableName() string {
	return "people"
}

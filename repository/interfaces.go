package repository

import (
	"github.com/camden-git/facenotebackend/models"
)

// PersonRepositoryInterface defines the methods for person data operations
type PersonRepositoryInterface interface {
	Create(draft PersonDraft) (*models.Person, error)
	GetByID(id string) (*models.Person, error)
	List(filter PersonFilter) ([]models.Person, error)
	Update(id string, update PersonUpdate) (*models.Person, error)
	UpdateMemorizationState(id string, state models.MemorizationState, streak int) error
	Delete(id string) error
	ClearAll() error
}

// SettingsRepositoryInterface defines the methods for quiz settings persistence
type SettingsRepositoryInterface interface {
	Load() (models.QuizSetting, error)
	Save(setting models.QuizSetting) error
}

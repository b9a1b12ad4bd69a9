package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/camden-git/facenotebackend/models"
)

// PersonFilter narrows List results. The zero value matches everything.
type PersonFilter struct {
	Group            string
	ExcludeMemorized bool
}

// PersonDraft carries the caller-supplied fields for a new person. The
// identifier, timestamps, memorization state and streak are initialized by
// the repository.
type PersonDraft struct {
	Name  string
	Group string
	Memo  string
	Photo string
}

// PersonUpdate carries a partial update; nil fields are left untouched.
type PersonUpdate struct {
	Name  *string
	Group *string
	Memo  *string
	Photo *string
}

// PersonRepository handles database operations for Person records and the
// derived group_counts index. Every mutation that can change a person's
// group runs the record write and the index adjustment inside one
// transaction, so callers never observe a half-applied index.
type PersonRepository struct {
	DB *gorm.DB
}

// NewPersonRepository creates a new instance of PersonRepository
func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{DB: db}
}

// Create inserts a new person record and increments the matching group
// count. New people start untried with a zero streak.
func (r *PersonRepository) Create(draft PersonDraft) (*models.Person, error) {
	now := time.Now().Unix()
	person := models.Person{
		ID:        uuid.NewString(),
		Name:      draft.Name,
		Group:     draft.Group,
		Memo:      draft.Memo,
		Photo:     draft.Photo,
		State:     models.StateUntried,
		Streak:    0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&person).Error; err != nil {
			return err
		}
		return adjustGroupCount(tx, person.Group, 1)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create person %s: %w", draft.Name, err)
	}
	return &person, nil
}

// GetByID retrieves a person by their ID
func (r *PersonRepository) GetByID(id string) (*models.Person, error) {
	var person models.Person
	err := r.DB.First(&person, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get person by ID %s: %w", id, err)
	}
	return &person, nil
}

// List retrieves people matching the filter, newest first
func (r *PersonRepository) List(filter PersonFilter) ([]models.Person, error) {
	query := r.DB.Order("created_at DESC")
	if filter.Group != "" {
		query = query.Where("group_name = ?", filter.Group)
	}
	if filter.ExcludeMemorized {
		query = query.Where("state <> ?", models.StateMemorized)
	}

	var people []models.Person
	if err := query.Find(&people).Error; err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	return people, nil
}

// Update merges the non-nil fields of update onto an existing person and
// refreshes updated_at. When the group changes, the old group's count is
// decremented and the new group's count incremented in the same
// transaction as the record write.
func (r *PersonRepository) Update(id string, update PersonUpdate) (*models.Person, error) {
	var person models.Person
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&person, "id = ?", id).Error; err != nil {
			return err
		}
		oldGroup := person.Group

		if update.Name != nil {
			person.Name = *update.Name
		}
		if update.Group != nil {
			person.Group = *update.Group
		}
		if update.Memo != nil {
			person.Memo = *update.Memo
		}
		if update.Photo != nil {
			person.Photo = *update.Photo
		}
		person.UpdatedAt = time.Now().Unix()

		if err := tx.Save(&person).Error; err != nil {
			return err
		}

		if person.Group != oldGroup {
			if err := adjustGroupCount(tx, oldGroup, -1); err != nil {
				return err
			}
			if err := adjustGroupCount(tx, person.Group, 1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update person ID %s: %w", id, err)
	}
	return &person, nil
}

// UpdateMemorizationState updates only the memorization state and streak.
// It is the quiz hot path, called once per answered question, and does not
// require the caller to fetch the record first. The group cannot change
// here so no index maintenance is needed.
func (r *PersonRepository) UpdateMemorizationState(id string, state models.MemorizationState, streak int) error {
	result := r.DB.Model(&models.Person{}).Where("id = ?", id).Updates(map[string]interface{}{
		"state":      state,
		"streak":     streak,
		"updated_at": time.Now().Unix(),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update memorization state for person ID %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a person by their ID and decrements their group's count
func (r *PersonRepository) Delete(id string) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var person models.Person
		if err := tx.First(&person, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Person{}, "id = ?", id).Error; err != nil {
			return err
		}
		return adjustGroupCount(tx, person.Group, -1)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete person ID %s: %w", id, err)
	}
	return nil
}

// ClearAll empties people, group counts and quiz settings. Used only for
// the explicit, user-confirmed full reset.
func (r *PersonRepository) ClearAll() error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Person{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.GroupCount{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&models.QuizSetting{}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to clear all data: %w", err)
	}
	return nil
}

// adjustGroupCount applies delta to the named group's count row, creating
// it at 1 on first use and deleting it when the count drops to zero. An
// empty group name is a no-op. Must run inside the transaction of the
// person mutation it belongs to.
func adjustGroupCount(tx *gorm.DB, group string, delta int) error {
	if group == "" || delta == 0 {
		return nil
	}

	var gc models.GroupCount
	err := tx.First(&gc, "name = ?", group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if delta > 0 {
			return tx.Create(&models.GroupCount{Name: group, Count: delta}).Error
		}
		return nil
	}
	if err != nil {
		return err
	}

	newCount := gc.Count + delta
	if newCount <= 0 {
		return tx.Delete(&models.GroupCount{}, "name = ?", group).Error
	}
	return tx.Model(&models.GroupCount{}).Where("name = ?", group).Update("count", newCount).Error
}

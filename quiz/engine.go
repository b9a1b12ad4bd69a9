package quiz

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/camden-git/facenotebackend/media"
	"github.com/camden-git/facenotebackend/models"
	"github.com/camden-git/facenotebackend/repository"
)

// OptionCount is the fixed number of choices per question; rosters smaller
// than this are padded with placeholder decoys.
const OptionCount = 4

// PlaceholderIDPrefix marks synthetic decoy options so the UI can
// special-case them.
const PlaceholderIDPrefix = "dummy-"

var placeholderNames = []string{"Taro Sato", "Hanako Suzuki", "Ken Takahashi", "Misaki Tanaka"}

// Target filter values for a quiz run.
const (
	TargetAll         = "all"
	TargetUnmemorized = "unmemorized"
)

// Settings configures one quiz session. Mode and AutoPromotion are
// persisted through the settings repository; Target and GroupFilter only
// live for the session.
type Settings struct {
	Mode          string `json:"mode"`
	AutoPromotion string `json:"auto_promotion"`
	Target        string `json:"target"`
	GroupFilter   string `json:"group_filter,omitempty"`
}

func (s Settings) persisted() models.QuizSetting {
	return models.QuizSetting{Mode: s.Mode, AutoPromotion: s.AutoPromotion}
}

func (s Settings) filter() repository.PersonFilter {
	return repository.PersonFilter{
		Group:            s.GroupFilter,
		ExcludeMemorized: s.Target == TargetUnmemorized,
	}
}

// Option is one multiple-choice candidate presented to the user.
type Option struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Group       string `json:"group,omitempty"`
	Photo       string `json:"photo"`
	Placeholder bool   `json:"placeholder"`
}

// Question holds the current target plus its shuffled option set.
type Question struct {
	Target  models.Person `json:"target"`
	Options []Option      `json:"options"`
	Mode    string        `json:"mode"`
}

// Result reports the outcome of answering the current question. State and
// Streak reflect the target's values after any promotion.
type Result struct {
	Correct   bool                     `json:"correct"`
	CorrectID string                   `json:"correct_id"`
	State     models.MemorizationState `json:"memorization_state"`
	Streak    int                      `json:"streak"`
}

// StateCommitter receives (state, streak) updates for correctly answered
// people. The session does not wait for durability; workers.StateWriter is
// the production implementation.
type StateCommitter interface {
	EnqueueStateUpdate(personID string, state models.MemorizationState, streak int)
}

// SessionOptions carries per-run parameters for NewSession. A nil Rand
// falls back to a time-seeded source; tests inject a seeded one.
type SessionOptions struct {
	Target      string
	GroupFilter string
	Rand        *rand.Rand
}

// Session drives one quiz run over a point-in-time snapshot of the roster:
// question selection without replacement, option synthesis, answer scoring
// and streak-based state promotion. Sessions are not safe for concurrent
// use; drive one from a single goroutine.
type Session struct {
	repo         repository.PersonRepositoryInterface
	settingsRepo repository.SettingsRepositoryInterface
	committer    StateCommitter
	rng          *rand.Rand

	settings        Settings
	snapshot        []models.Person
	answered        map[string]struct{}
	current         *Question
	answeredCurrent bool
}

// NewSession loads the persisted quiz settings, fetches the filtered
// person snapshot and generates the first question.
func NewSession(repo repository.PersonRepositoryInterface, settingsRepo repository.SettingsRepositoryInterface, committer StateCommitter, opts SessionOptions) (*Session, error) {
	persisted, err := settingsRepo.Load()
	if err != nil {
		return nil, err
	}

	target := opts.Target
	if target == "" {
		target = TargetAll
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := &Session{
		repo:         repo,
		settingsRepo: settingsRepo,
		committer:    committer,
		rng:          rng,
		settings: Settings{
			Mode:          persisted.Mode,
			AutoPromotion: persisted.AutoPromotion,
			Target:        target,
			GroupFilter:   opts.GroupFilter,
		},
		answered: make(map[string]struct{}),
	}

	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Settings returns the session's active settings
func (s *Session) Settings() Settings {
	return s.settings
}

// Current returns the active question, or nil once the session is complete
func (s *Session) Current() *Question {
	return s.current
}

// Completed reports whether every person in the filtered snapshot has been
// asked. An empty snapshot completes immediately.
func (s *Session) Completed() bool {
	return s.current == nil
}

// Remaining returns how many people have not been asked yet
func (s *Session) Remaining() int {
	return len(s.snapshot) - len(s.answered)
}

// SelectAnswer scores the chosen option against the current question. It
// returns nil (no-op) when there is no active question or the question was
// already answered. A correct answer increments the streak relative to the
// snapshot value, recomputes the memorization state when auto-promotion is
// on, and hands the update to the committer without waiting for it to be
// written. A wrong answer mutates nothing; in particular it does not reset
// the streak. Either way the target is marked as asked for this session.
func (s *Session) SelectAnswer(personID string) *Result {
	if s.current == nil || s.answeredCurrent {
		return nil
	}

	target := s.current.Target
	result := &Result{
		Correct:   personID == target.ID,
		CorrectID: target.ID,
		State:     target.State,
		Streak:    target.Streak,
	}

	if result.Correct {
		newStreak := target.Streak + 1
		newState := target.State
		if s.settings.AutoPromotion != models.AutoPromotionOff {
			if threshold, err := strconv.Atoi(s.settings.AutoPromotion); err == nil {
				if newStreak >= threshold {
					newState = models.StateMemorized
				} else if newStreak >= 1 {
					// can also pull a stale 'memorized' record back to
					// learning when its current run is still short
					newState = models.StateLearning
				}
			}
		}

		s.committer.EnqueueStateUpdate(target.ID, newState, newStreak)
		s.patchSnapshot(target.ID, newState, newStreak)
		result.State = newState
		result.Streak = newStreak
	}

	s.answered[target.ID] = struct{}{}
	s.answeredCurrent = true
	return result
}

// Advance moves to the next question. Before the current question is
// answered it is a no-op and returns the current question unchanged; after
// the last person has been asked it returns nil.
func (s *Session) Advance() *Question {
	if s.current != nil && !s.answeredCurrent {
		return s.current
	}
	s.nextQuestion()
	return s.current
}

// ApplySettings persists the new settings, clears the answered set,
// refetches the snapshot under the new filter and generates a fresh
// question: a new run without leaving the quiz.
func (s *Session) ApplySettings(settings Settings) error {
	if settings.Mode == "" {
		settings.Mode = models.ModeFaceToName
	}
	if settings.AutoPromotion == "" {
		settings.AutoPromotion = models.AutoPromotionOff
	}
	if settings.Target == "" {
		settings.Target = TargetAll
	}

	if err := s.settingsRepo.Save(settings.persisted()); err != nil {
		return err
	}

	s.settings = settings
	s.answered = make(map[string]struct{})
	return s.reload()
}

func (s *Session) reload() error {
	people, err := s.repo.List(s.settings.filter())
	if err != nil {
		return err
	}
	s.snapshot = people
	s.nextQuestion()
	return nil
}

// nextQuestion picks a uniformly random target from the people not yet
// asked this session, or marks the session complete when none remain.
func (s *Session) nextQuestion() {
	pool := make([]models.Person, 0, len(s.snapshot))
	for _, p := range s.snapshot {
		if _, asked := s.answered[p.ID]; !asked {
			pool = append(pool, p)
		}
	}

	s.answeredCurrent = false
	if len(pool) == 0 {
		s.current = nil
		return
	}

	target := pool[s.rng.Intn(len(pool))]
	s.current = &Question{
		Target:  target,
		Options: s.buildOptions(target),
		Mode:    s.settings.Mode,
	}
}

// buildOptions assembles the target plus every other snapshot person as
// decoys (already-asked people included), pads with placeholders up to the
// fixed option count, truncates and shuffles.
func (s *Session) buildOptions(target models.Person) []Option {
	options := make([]Option, 0, OptionCount)
	options = append(options, personOption(target))
	for _, p := range s.snapshot {
		if p.ID != target.ID {
			options = append(options, personOption(p))
		}
	}

	for i := 0; len(options) < OptionCount; i++ {
		options = append(options, Option{
			ID:          fmt.Sprintf("%s%d", PlaceholderIDPrefix, i),
			Name:        placeholderNames[i%len(placeholderNames)],
			Photo:       media.PlaceholderPhotoPath,
			Placeholder: true,
		})
	}

	options = options[:OptionCount]
	s.rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
	return options
}

func personOption(p models.Person) Option {
	return Option{ID: p.ID, Name: p.Name, Group: p.Group, Photo: p.Photo}
}

func (s *Session) patchSnapshot(personID string, state models.MemorizationState, streak int) {
	for i := range s.snapshot {
		if s.snapshot[i].ID == personID {
			s.snapshot[i].State = state
			s.snapshot[i].Streak = streak
			return
		}
	}
}

// IsPlaceholderID reports whether an option id belongs to a synthetic
// decoy rather than a real person.
func IsPlaceholderID(id string) bool {
	return strings.HasPrefix(id, PlaceholderIDPrefix)
}

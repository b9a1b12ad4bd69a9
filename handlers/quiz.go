package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/camden-git/facenotebackend/models"
	"github.com/camden-git/facenotebackend/quiz"
	"github.com/camden-git/facenotebackend/repository"
)

// QuizHandler owns the in-memory quiz sessions and the persisted quiz
// settings endpoints. Each session is single-threaded by contract, so all
// session access goes through the handler mutex.
type QuizHandler struct {
	Repo         *repository.PersonRepository
	SettingsRepo *repository.SettingsRepository
	Committer    quiz.StateCommitter

	mu       sync.Mutex
	sessions map[string]*quiz.Session
}

func NewQuizHandler(repo *repository.PersonRepository, settingsRepo *repository.SettingsRepository, committer quiz.StateCommitter) *QuizHandler {
	return &QuizHandler{
		Repo:         repo,
		SettingsRepo: settingsRepo,
		Committer:    committer,
		sessions:     make(map[string]*quiz.Session),
	}
}

type sessionResponse struct {
	SessionID string         `json:"session_id"`
	Question  *quiz.Question `json:"question"`
	Remaining int            `json:"remaining"`
	Completed bool           `json:"completed"`
	Settings  quiz.Settings  `json:"settings"`
}

func sessionState(id string, s *quiz.Session) sessionResponse {
	return sessionResponse{
		SessionID: id,
		Question:  s.Current(),
		Remaining: s.Remaining(),
		Completed: s.Completed(),
		Settings:  s.Settings(),
	}
}

// StartSession creates a quiz session over the filtered roster and returns
// its first question. A roster with nobody to ask completes immediately.
func (qh *QuizHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target      string `json:"target"`
		GroupFilter string `json:"group_filter"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_body", "Invalid request body: "+err.Error())
			return
		}
	}

	session, err := quiz.NewSession(qh.Repo, qh.SettingsRepo, qh.Committer, quiz.SessionOptions{
		Target:      req.Target,
		GroupFilter: req.GroupFilter,
	})
	if err != nil {
		log.Printf("Error starting quiz session: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "session_failed", "Failed to start quiz session")
		return
	}

	sessionID := uuid.NewString()
	qh.mu.Lock()
	qh.sessions[sessionID] = session
	qh.mu.Unlock()

	writeJSON(w, http.StatusCreated, sessionState(sessionID, session))
}

// Answer scores the chosen option against the session's current question
func (qh *QuizHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PersonID string `json:"person_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "Invalid request body: "+err.Error())
		return
	}

	qh.mu.Lock()
	defer qh.mu.Unlock()

	sessionID := chi.URLParam(r, "session_id")
	session, ok := qh.sessions[sessionID]
	if !ok {
		WriteAPIError(w, http.StatusNotFound, "not_found", "Quiz session not found")
		return
	}

	result := session.SelectAnswer(req.PersonID)
	if result == nil {
		WriteAPIError(w, http.StatusConflict, "no_active_question", "No unanswered question in this session")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Next advances the session to its next question, removing the session
// once it has completed
func (qh *QuizHandler) Next(w http.ResponseWriter, r *http.Request) {
	qh.mu.Lock()
	defer qh.mu.Unlock()

	sessionID := chi.URLParam(r, "session_id")
	session, ok := qh.sessions[sessionID]
	if !ok {
		WriteAPIError(w, http.StatusNotFound, "not_found", "Quiz session not found")
		return
	}

	session.Advance()
	if session.Completed() {
		delete(qh.sessions, sessionID)
	}
	writeJSON(w, http.StatusOK, sessionState(sessionID, session))
}

// ApplySessionSettings persists new quiz settings and restarts the session
// under them without leaving the quiz view
func (qh *QuizHandler) ApplySessionSettings(w http.ResponseWriter, r *http.Request) {
	var settings quiz.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "Invalid request body: "+err.Error())
		return
	}

	qh.mu.Lock()
	defer qh.mu.Unlock()

	sessionID := chi.URLParam(r, "session_id")
	session, ok := qh.sessions[sessionID]
	if !ok {
		WriteAPIError(w, http.StatusNotFound, "not_found", "Quiz session not found")
		return
	}

	if err := session.ApplySettings(settings); err != nil {
		log.Printf("Error applying quiz settings to session %s: %v", sessionID, err)
		WriteAPIError(w, http.StatusInternalServerError, "not_persisted", "Failed to apply quiz settings")
		return
	}
	writeJSON(w, http.StatusOK, sessionState(sessionID, session))
}

// GetSettings returns the persisted quiz settings (defaults before any save)
func (qh *QuizHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	setting, err := qh.SettingsRepo.Load()
	if err != nil {
		log.Printf("Error loading quiz settings: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "load_failed", "Failed to load quiz settings")
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

// SaveSettings overwrites the persisted quiz settings wholesale
func (qh *QuizHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	var setting models.QuizSetting
	if err := json.NewDecoder(r.Body).Decode(&setting); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "Invalid request body: "+err.Error())
		return
	}

	if err := qh.SettingsRepo.Save(setting); err != nil {
		log.Printf("Error saving quiz settings: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "not_persisted", "Failed to save quiz settings")
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

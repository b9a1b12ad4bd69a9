package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/camden-git/facenotebackend/config"
	"github.com/camden-git/facenotebackend/models"
	"github.com/camden-git/facenotebackend/quiz"
	"github.com/camden-git/facenotebackend/repository"
	"github.com/camden-git/facenotebackend/workers"
)

type testEnv struct {
	router *chi.Mux
	repo   *repository.PersonRepository
	writer *workers.StateWriter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Person{}, &models.GroupCount{}, &models.QuizSetting{}))

	var sqlDB *sql.DB
	sqlDB, err = db.DB()
	require.NoError(t, err)

	repo := repository.NewPersonRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	writer := workers.NewStateWriter(repo, 10, 1)
	t.Cleanup(writer.Stop)

	personHandler := &PersonHandler{Repo: repo, StatsDB: sqlDB, Cfg: config.Config{PhotoMaxSize: 240, PhotoJpegQuality: 70}}
	quizHandler := NewQuizHandler(repo, settingsRepo, writer)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Route("/people", func(r chi.Router) {
			r.Post("/", personHandler.CreatePerson)
			r.Get("/", personHandler.ListPeople)
			r.Get("/stats", personHandler.GetStats)
			r.Route("/{person_id}", func(r chi.Router) {
				r.Get("/", personHandler.GetPerson)
				r.Put("/", personHandler.UpdatePerson)
				r.Delete("/", personHandler.DeletePerson)
			})
		})
		r.Get("/groups", personHandler.ListTopGroups)
		r.Route("/quiz", func(r chi.Router) {
			r.Get("/settings", quizHandler.GetSettings)
			r.Put("/settings", quizHandler.SaveSettings)
			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", quizHandler.StartSession)
				r.Route("/{session_id}", func(r chi.Router) {
					r.Post("/answer", quizHandler.Answer)
					r.Post("/next", quizHandler.Next)
				})
			})
		})
		r.Get("/placeholder/{width}/{height}", PlaceholderImage)
		r.Post("/reset", personHandler.Reset)
	})

	return &testEnv{router: r, repo: repo, writer: writer}
}

func multipartBody(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, mw.WriteField(key, value))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, body)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func createPerson(t *testing.T, env *testEnv, name, group string) models.Person {
	t.Helper()
	body, contentType := multipartBody(t, map[string]string{"name": name, "group": group})
	rec := env.do(t, http.MethodPost, "/api/people", body, contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var person models.Person
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &person))
	return person
}

func TestPersonLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	person := createPerson(t, env, "Aiko Mori", "Sales")
	assert.Equal(t, models.StateUntried, person.State)

	// missing name is rejected
	body, contentType := multipartBody(t, map[string]string{"group": "Sales"})
	rec := env.do(t, http.MethodPost, "/api/people", body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// partial update touches only the submitted fields
	body, contentType = multipartBody(t, map[string]string{"memo": "met at kickoff"})
	rec = env.do(t, http.MethodPut, "/api/people/"+person.ID, body, contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Person
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Aiko Mori", updated.Name)
	assert.Equal(t, "met at kickoff", updated.Memo)

	rec = env.do(t, http.MethodGet, "/api/people", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var people []models.Person
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &people))
	assert.Len(t, people, 1)

	rec = env.do(t, http.MethodDelete, "/api/people/"+person.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/people/"+person.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsAndGroupsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	createPerson(t, env, "A", "Sales")
	createPerson(t, env, "B", "Sales")
	createPerson(t, env, "C", "Engineering")

	rec := env.do(t, http.MethodGet, "/api/people/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(3), stats["total"])
	assert.Equal(t, int64(3), stats["unmemorized"])

	rec = env.do(t, http.MethodGet, "/api/groups", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var groups []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &groups))
	assert.Equal(t, []string{"Sales", "Engineering"}, groups)

	rec = env.do(t, http.MethodPost, "/api/reset", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/people/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(0), stats["total"])
}

func TestQuizSessionOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	person := createPerson(t, env, "Solo", "")

	rec := env.do(t, http.MethodPost, "/api/quiz/sessions", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var started struct {
		SessionID string         `json:"session_id"`
		Question  *quiz.Question `json:"question"`
		Completed bool           `json:"completed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	require.NotNil(t, started.Question)
	assert.False(t, started.Completed)
	assert.Len(t, started.Question.Options, quiz.OptionCount)
	assert.Equal(t, person.ID, started.Question.Target.ID)

	answer, _ := json.Marshal(map[string]string{"person_id": person.ID})
	rec = env.do(t, http.MethodPost, "/api/quiz/sessions/"+started.SessionID+"/answer", bytes.NewBuffer(answer), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result quiz.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Correct)
	assert.Equal(t, person.ID, result.CorrectID)

	// answering again conflicts
	rec = env.do(t, http.MethodPost, "/api/quiz/sessions/"+started.SessionID+"/answer", bytes.NewBuffer(answer), "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/quiz/sessions/"+started.SessionID+"/next", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var next struct {
		Completed bool `json:"completed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &next))
	assert.True(t, next.Completed)

	// completed sessions are discarded
	rec = env.do(t, http.MethodPost, "/api/quiz/sessions/"+started.SessionID+"/next", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQuizSettingsOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/quiz/settings", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var setting models.QuizSetting
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &setting))
	assert.Equal(t, models.ModeFaceToName, setting.Mode)
	assert.Equal(t, models.AutoPromotionOff, setting.AutoPromotion)

	payload, _ := json.Marshal(models.QuizSetting{Mode: models.ModeNameToFace, AutoPromotion: "3"})
	rec = env.do(t, http.MethodPut, "/api/quiz/settings", bytes.NewBuffer(payload), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/quiz/settings", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &setting))
	assert.Equal(t, models.ModeNameToFace, setting.Mode)
	assert.Equal(t, "3", setting.AutoPromotion)
}

func TestPlaceholderImageEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/placeholder/150/150", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
}

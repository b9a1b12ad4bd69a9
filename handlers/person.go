package handlers

import (
	"database/sql"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/camden-git/facenotebackend/config"
	"github.com/camden-git/facenotebackend/database"
	"github.com/camden-git/facenotebackend/media"
	"github.com/camden-git/facenotebackend/models"
	"github.com/camden-git/facenotebackend/repository"
)

// multipart bodies are tiny here (one downscaled photo at most)
const maxUploadBytes = 16 << 20

var validate = validator.New()

type PersonHandler struct {
	Repo    *repository.PersonRepository
	StatsDB *sql.DB
	Cfg     config.Config
}

type createPersonRequest struct {
	Name  string `validate:"required"`
	Group string
	Memo  string
}

// CreatePerson registers a new person from a multipart form: fields name,
// group, memo plus an optional photo file part, which is run through the
// media pipeline into the stored data-URL form.
func (ph *PersonHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "Expected multipart form data: "+err.Error())
		return
	}

	req := createPersonRequest{
		Name:  strings.TrimSpace(r.FormValue("name")),
		Group: strings.TrimSpace(r.FormValue("group")),
		Memo:  r.FormValue("memo"),
	}
	if err := validate.Struct(req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "validation_failed", "Missing required field: name")
		return
	}

	photo, ok := ph.encodePhotoUpload(w, r)
	if !ok {
		return
	}

	person, err := ph.Repo.Create(repository.PersonDraft{
		Name:  req.Name,
		Group: req.Group,
		Memo:  req.Memo,
		Photo: photo,
	})
	if err != nil {
		log.Printf("Error creating person '%s': %v", req.Name, err)
		WriteAPIError(w, http.StatusInternalServerError, "not_persisted", "Failed to create person")
		return
	}

	writeJSON(w, http.StatusCreated, person)
}

func (ph *PersonHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	filter := repository.PersonFilter{
		Group:            r.URL.Query().Get("group"),
		ExcludeMemorized: r.URL.Query().Get("exclude_memorized") == "true",
	}

	people, err := ph.Repo.List(filter)
	if err != nil {
		log.Printf("Error listing people: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "list_failed", "Failed to retrieve people")
		return
	}
	if people == nil {
		people = []models.Person{}
	}
	writeJSON(w, http.StatusOK, people)
}

func (ph *PersonHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "person_id")

	person, err := ph.Repo.GetByID(personID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Person not found")
		} else {
			log.Printf("Error getting person %s: %v", personID, err)
			WriteAPIError(w, http.StatusInternalServerError, "get_failed", "Failed to retrieve person")
		}
		return
	}
	writeJSON(w, http.StatusOK, person)
}

// UpdatePerson merges the submitted multipart fields onto the person.
// Absent fields are left untouched; a photo file part replaces the stored
// photo and an explicit empty 'photo' field clears it.
func (ph *PersonHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "person_id")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "Expected multipart form data: "+err.Error())
		return
	}

	var update repository.PersonUpdate
	if vals, present := r.MultipartForm.Value["name"]; present && len(vals) > 0 {
		name := strings.TrimSpace(vals[0])
		if name == "" {
			WriteAPIError(w, http.StatusBadRequest, "validation_failed", "Field 'name' must not be empty")
			return
		}
		update.Name = &name
	}
	if vals, present := r.MultipartForm.Value["group"]; present && len(vals) > 0 {
		group := strings.TrimSpace(vals[0])
		update.Group = &group
	}
	if vals, present := r.MultipartForm.Value["memo"]; present && len(vals) > 0 {
		update.Memo = &vals[0]
	}

	if _, _, err := r.FormFile("photo"); err == nil {
		photo, ok := ph.encodePhotoUpload(w, r)
		if !ok {
			return
		}
		update.Photo = &photo
	} else if vals, present := r.MultipartForm.Value["photo"]; present && len(vals) > 0 && vals[0] == "" {
		empty := ""
		update.Photo = &empty
	}

	person, err := ph.Repo.Update(personID, update)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Person not found")
		} else {
			log.Printf("Error updating person %s: %v", personID, err)
			WriteAPIError(w, http.StatusInternalServerError, "not_persisted", "Failed to update person")
		}
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (ph *PersonHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "person_id")

	err := ph.Repo.Delete(personID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "Person not found")
		} else {
			log.Printf("Error deleting person %s: %v", personID, err)
			WriteAPIError(w, http.StatusInternalServerError, "not_persisted", "Failed to delete person")
		}
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// GetStats returns the roster counters shown on the home screen
func (ph *PersonHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	total, err := database.CountPeople(ph.StatsDB)
	if err != nil {
		log.Printf("Error counting people: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "stats_failed", "Failed to compute stats")
		return
	}
	unmemorized, err := database.CountUnmemorized(ph.StatsDB)
	if err != nil {
		log.Printf("Error counting unmemorized people: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "stats_failed", "Failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{
		"total":       total,
		"unmemorized": unmemorized,
	})
}

// ListTopGroups returns the largest groups for the home-screen suggestions
func (ph *PersonHandler) ListTopGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := database.TopGroups(ph.StatsDB, database.DefaultTopGroupsLimit)
	if err != nil {
		log.Printf("Error listing top groups: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "groups_failed", "Failed to retrieve groups")
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// ListAllGroups returns every group name for the filter autocomplete
func (ph *PersonHandler) ListAllGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := database.AllGroupNames(ph.StatsDB)
	if err != nil {
		log.Printf("Error listing group names: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "groups_failed", "Failed to retrieve groups")
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// Reset empties every collection. The UI gates this behind an explicit
// confirmation dialog.
func (ph *PersonHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := ph.Repo.ClearAll(); err != nil {
		log.Printf("Error clearing all data: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "not_persisted", "Failed to reset data")
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// encodePhotoUpload reads the optional 'photo' file part and runs it
// through the media pipeline. Returns ("", true) when no photo was sent;
// writes the error response itself and returns ok=false on failure.
func (ph *PersonHandler) encodePhotoUpload(w http.ResponseWriter, r *http.Request) (string, bool) {
	file, _, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", true
		}
		WriteAPIError(w, http.StatusBadRequest, "invalid_photo", "Failed to read photo upload: "+err.Error())
		return "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_photo", "Failed to read photo upload: "+err.Error())
		return "", false
	}

	photo, err := media.EncodePhoto(data, ph.Cfg.PhotoMaxSize, ph.Cfg.PhotoJpegQuality)
	if err != nil {
		if errors.Is(err, media.ErrImageDecode) {
			WriteAPIError(w, http.StatusBadRequest, "image_decode_error", "Uploaded file is not a decodable image")
		} else {
			log.Printf("Error encoding photo: %v", err)
			WriteAPIError(w, http.StatusInternalServerError, "encode_failed", "Failed to process photo")
		}
		return "", false
	}
	return photo, true
}

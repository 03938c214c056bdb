package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lazypower/scrapbook/internal/media"
	"github.com/lazypower/scrapbook/internal/memory"
	"github.com/lazypower/scrapbook/internal/store"
)

const maxBody = 1 << 20

type createRequest struct {
	Title       string      `json:"title" validate:"required"`
	Date        string      `json:"date" validate:"required,datetime=2006-01-02"`
	Location    string      `json:"location"`
	Description string      `json:"description"`
	Tags        []string    `json:"tags"`
	Photos      []media.Ref `json:"photos" validate:"min=1"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// validationMessage flattens validator errors into one line using JSON
// field names.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "datetime":
		return fe.Field() + " must be a YYYY-MM-DD date"
	case "min":
		return fe.Field() + " must not be empty"
	}
	return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
}

func checkRefs(refs []media.Ref) error {
	for i, ref := range refs {
		if !ref.Valid() {
			return fmt.Errorf("photos[%d] is not a recognized media reference", i)
		}
	}
	return nil
}

func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "memory not found")
	case errors.Is(err, store.ErrReadOnly):
		writeError(w, http.StatusMethodNotAllowed, "store is read-only")
	case errors.Is(err, store.ErrExists):
		writeError(w, http.StatusConflict, "memory already exists")
	default:
		s.log.Error(op, zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
	}
}

func (s *Server) handleListMemories(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context())
	if err != nil {
		s.log.Error("load memories", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error loading memories")
		return
	}

	entries = memory.SortByDate(entries)
	if res := s.resolver(); res != nil {
		for i := range entries {
			signed, err := media.Sign(r.Context(), entries[i].Photos, res)
			if err != nil {
				s.log.Warn("sign media", zap.String("id", entries[i].ID), zap.Error(err))
			}
			entries[i].Photos = signed
		}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetMemory(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.storeError(w, "get memory", err)
		return
	}
	if res := s.resolver(); res != nil {
		e.Photos, err = media.Sign(r.Context(), e.Photos, res)
		if err != nil {
			s.log.Warn("sign media", zap.String("id", e.ID), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateMemory(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decode(w, r, &req) {
		return
	}
	if err := memory.Validator().Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	if err := checkRefs(req.Photos); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	e := memory.Entry{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Date:        req.Date,
		Location:    req.Location,
		Description: req.Description,
		Tags:        req.Tags,
		Photos:      req.Photos,
		CreatedAt:   s.now().UnixMilli(),
	}
	created, err := s.store.Create(r.Context(), e)
	if err != nil {
		s.storeError(w, "create memory", err)
		return
	}
	s.metrics.Mutations.WithLabelValues("create").Inc()
	s.log.Info("memory created", zap.String("id", created.ID), zap.String("title", created.Title))
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var p memory.Patch
	if !decode(w, r, &p) {
		return
	}
	if err := memory.ValidatePatch(p); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	if p.Photos != nil {
		if err := checkRefs(*p.Photos); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	updated, err := s.store.Update(r.Context(), id, p)
	if err != nil {
		s.storeError(w, "update memory", err)
		return
	}
	s.metrics.Mutations.WithLabelValues("update").Inc()
	s.log.Info("memory updated", zap.String("id", id))
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteMemory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.storeError(w, "delete memory", err)
		return
	}
	s.metrics.Mutations.WithLabelValues("delete").Inc()
	s.log.Info("memory deleted", zap.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}

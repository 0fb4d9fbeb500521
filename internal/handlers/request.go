package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"todo/internal/interfaces"
	"todo/internal/models"
	"todo/internal/response"
	"todo/internal/validation"
)

// decodeAndValidate reads a JSON body into dst and runs struct validation.
func decodeAndValidate(r *http.Request, v *validation.Validator, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return interfaces.BadRequest("Request body is required")
		}
		return interfaces.BadRequest("Invalid request body").Wrap(err)
	}
	return v.Struct(dst)
}

func pathID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", interfaces.BadRequest("ID must be a valid UUID")
	}
	return id, nil
}

// parsePagination reads ?page= and ?limit=. Missing values take defaults;
// present but invalid values are rejected.
func parsePagination(r *http.Request) (models.PageRequest, error) {
	req := models.PageRequest{Page: 1, Limit: models.DefaultPageLimit}
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return req, interfaces.BadRequest("page must be a positive integer")
		}
		req.Page = page
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > models.MaxPageLimit {
			return req, interfaces.BadRequest("limit must be between 1 and 100")
		}
		req.Limit = limit
	}
	return req, nil
}

func parseStatus(r *http.Request) (models.TodoStatus, error) {
	status := models.TodoStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		return "", interfaces.BadRequest("status must be one of pending, on_track, off_track, done")
	}
	return status, nil
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	response.Error(w, http.StatusNotFound, "Route not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
}

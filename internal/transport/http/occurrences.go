package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Erich2020/challenge-server/internal/app"
	"github.com/Erich2020/challenge-server/internal/domain"
)

// OccurrenceService is the minimal interface the occurrence endpoints need.
type OccurrenceService interface {
	CreateOccurrence(ctx context.Context, in app.CreateOccurrenceInput, creatorID string) (domain.Occurrence, error)
	GetOccurrence(ctx context.Context, id string) (domain.Occurrence, error)
	ListOccurrences(ctx context.Context) ([]domain.Occurrence, error)
	UpdateOccurrence(ctx context.Context, id string, in app.UpdateOccurrenceInput, requesterID string) (domain.Occurrence, error)
	DeleteOccurrence(ctx context.Context, id, requesterID string) error
}

// HandleOccurrences returns an HTTP handler for listing and creating
// occurrences.
func HandleOccurrences(svc OccurrenceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			occurrences, err := svc.ListOccurrences(r.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				return
			}
			resp := make([]occurrenceResponse, 0, len(occurrences))
			for _, occ := range occurrences {
				resp = append(resp, toOccurrenceResponse(occ))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		case http.MethodPost:
			userID, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
				return
			}

			var req createOccurrenceRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			var date time.Time
			if req.Date != "" {
				parsed, err := time.Parse(time.RFC3339, req.Date)
				if err != nil {
					writeError(w, http.StatusBadRequest, codeInvalidDate, "invalid date format")
					return
				}
				date = parsed
			}

			occ, err := svc.CreateOccurrence(r.Context(), app.CreateOccurrenceInput{
				Name:     req.Name,
				Date:     date,
				Location: req.Location,
				Capacity: req.Capacity,
			}, userID)
			if err != nil {
				writeOccurrenceError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(toOccurrenceResponse(occ))
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleOccurrenceByID returns an HTTP handler for fetching, updating and
// deleting a single occurrence.
func HandleOccurrenceByID(svc OccurrenceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseOccurrencePath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch r.Method {
		case http.MethodGet:
			occ, err := svc.GetOccurrence(r.Context(), id)
			if err != nil {
				writeOccurrenceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toOccurrenceResponse(occ))
		case http.MethodPut, http.MethodPatch:
			userID, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
				return
			}

			var req updateOccurrenceRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			in := app.UpdateOccurrenceInput{
				Name:     req.Name,
				Location: req.Location,
				Capacity: req.Capacity,
			}
			if req.Date != nil {
				parsed, err := time.Parse(time.RFC3339, *req.Date)
				if err != nil {
					writeError(w, http.StatusBadRequest, codeInvalidDate, "invalid date format")
					return
				}
				in.Date = &parsed
			}

			occ, err := svc.UpdateOccurrence(r.Context(), id, in, userID)
			if err != nil {
				writeOccurrenceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toOccurrenceResponse(occ))
		case http.MethodDelete:
			userID, ok := UserFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
				return
			}
			if err := svc.DeleteOccurrence(r.Context(), id, userID); err != nil {
				writeOccurrenceError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

func parseOccurrencePath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 {
		return "", false
	}
	if parts[0] != "occurrences" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func writeOccurrenceError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrInvalidID:
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case domain.ErrOccurrenceNameRequired:
		writeError(w, http.StatusBadRequest, codeOccurrenceNameRequired, err.Error())
	case domain.ErrInvalidCapacity:
		writeError(w, http.StatusBadRequest, codeInvalidCapacity, err.Error())
	case domain.ErrOccurrenceNotFound:
		writeError(w, http.StatusNotFound, codeOccurrenceNotFound, err.Error())
	case domain.ErrUnauthorized:
		writeError(w, http.StatusForbidden, codeForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

type createOccurrenceRequest struct {
	Name     string `json:"name"`
	Date     string `json:"date,omitempty"`
	Location string `json:"location,omitempty"`
	Capacity int    `json:"capacity"`
}

type updateOccurrenceRequest struct {
	Name     *string `json:"name,omitempty"`
	Date     *string `json:"date,omitempty"`
	Location *string `json:"location,omitempty"`
	Capacity *int    `json:"capacity,omitempty"`
}

type occurrenceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	Location  string    `json:"location"`
	Capacity  int       `json:"capacity"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toOccurrenceResponse(occ domain.Occurrence) occurrenceResponse {
	return occurrenceResponse{
		ID:        occ.ID,
		Name:      occ.Name,
		Date:      occ.Date,
		Location:  occ.Location,
		Capacity:  occ.Capacity,
		CreatedBy: occ.CreatedBy,
		CreatedAt: occ.CreatedAt,
		UpdatedAt: occ.UpdatedAt,
	}
}

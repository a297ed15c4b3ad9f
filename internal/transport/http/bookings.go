package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Erich2020/challenge-server/internal/domain"
)

// BookingService is the minimal interface the booking endpoints need.
type BookingService interface {
	RequestBooking(ctx context.Context, occurrenceID, userID string) (domain.Booking, error)
	CancelBooking(ctx context.Context, occurrenceID, userID string) (domain.Booking, error)
	ListUserBookings(ctx context.Context, userID string) ([]domain.Booking, error)
	GetBooking(ctx context.Context, id, requesterID string) (domain.Booking, error)
	DeleteBooking(ctx context.Context, id, requesterID string) error
}

// HandleBookings returns an HTTP handler for the booking collection: GET
// lists the authenticated user's bookings, POST claims a place on an
// occurrence. The claim blocks until it is confirmed or the confirmation
// deadline passes.
func HandleBookings(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
			return
		}

		switch r.Method {
		case http.MethodGet:
			bookings, err := svc.ListUserBookings(r.Context(), userID)
			if err != nil {
				writeBookingError(w, err)
				return
			}
			out := make([]bookingResponse, 0, len(bookings))
			for _, b := range bookings {
				out = append(out, toBookingResponse(b))
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(out)

		case http.MethodPost:
			var req createBookingRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if req.OccurrenceID == "" {
				writeError(w, http.StatusBadRequest, codeInvalidID, domain.ErrInvalidID.Error())
				return
			}

			booking, err := svc.RequestBooking(r.Context(), req.OccurrenceID, userID)
			if err != nil {
				writeBookingError(w, err)
				return
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(toBookingResponse(booking))

		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleBookingByID returns an HTTP handler for a single booking: GET reads
// it, DELETE removes the record. Both are restricted to the booking's owner.
func HandleBookingByID(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseBookingPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		userID, ok := UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
			return
		}

		switch r.Method {
		case http.MethodGet:
			booking, err := svc.GetBooking(r.Context(), id, userID)
			if err != nil {
				writeBookingError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(toBookingResponse(booking))

		case http.MethodDelete:
			if err := svc.DeleteBooking(r.Context(), id, userID); err != nil {
				writeBookingError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleCancelBooking returns an HTTP handler for releasing a confirmed
// claim. The route is POST /bookings/{occurrence_id}/cancel.
func HandleCancelBooking(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		occurrenceID, ok := parseCancelBookingPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		userID, ok := UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
			return
		}

		booking, err := svc.CancelBooking(r.Context(), occurrenceID, userID)
		if err != nil {
			writeBookingError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toBookingResponse(booking))
	}
}

func parseBookingPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] != "bookings" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func parseCancelBookingPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 {
		return "", false
	}
	if parts[0] != "bookings" || parts[2] != "cancel" {
		return "", false
	}
	if parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func writeBookingError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrInvalidID:
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case domain.ErrAlreadyBooked:
		writeError(w, http.StatusConflict, codeAlreadyBooked, err.Error())
	case domain.ErrNotAvailable:
		writeError(w, http.StatusConflict, codeNotAvailable, err.Error())
	case domain.ErrBookingNotFound:
		writeError(w, http.StatusNotFound, codeBookingNotFound, err.Error())
	case domain.ErrOccurrenceNotFound:
		writeError(w, http.StatusNotFound, codeOccurrenceNotFound, err.Error())
	case domain.ErrConfirmationTimeout:
		writeError(w, http.StatusGatewayTimeout, codeConfirmationTimeout, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

type createBookingRequest struct {
	OccurrenceID string `json:"occurrence_id"`
}

type bookingResponse struct {
	ID           string    `json:"id"`
	OccurrenceID string    `json:"occurrence_id"`
	UserID       string    `json:"user_id"`
	Active       bool      `json:"active"`
	Committed    bool      `json:"committed"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:           b.ID,
		OccurrenceID: b.OccurrenceID,
		UserID:       b.UserID,
		Active:       b.Active,
		Committed:    b.Committed,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

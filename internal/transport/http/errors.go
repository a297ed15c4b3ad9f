package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed       = "method_not_allowed"
	codeNotFound               = "not_found"
	codeInvalidRequestBody     = "invalid_request_body"
	codeInvalidID              = "invalid_id"
	codeOccurrenceNameRequired = "occurrence_name_required"
	codeInvalidCapacity        = "invalid_capacity"
	codeInvalidDate            = "invalid_date"
	codeEmailRequired          = "email_required"
	codePasswordRequired       = "password_required"
	codeEmailTaken             = "email_taken"
	codeInvalidCredentials     = "invalid_credentials"
	codeUnauthorized           = "unauthorized"
	codeForbidden              = "forbidden"
	codeAlreadyBooked          = "already_booked"
	codeNotAvailable           = "not_available"
	codeBookingNotFound        = "booking_not_found"
	codeOccurrenceNotFound     = "occurrence_not_found"
	codeUserNotFound           = "user_not_found"
	codeConfirmationTimeout    = "confirmation_timeout"
	codeInternalError          = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

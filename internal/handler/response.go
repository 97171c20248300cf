package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"

	"user-service/pkg/apierror"
)

type errorBody struct {
	Error   string            `json:"error"`
	Details []validationIssue `json:"details,omitempty"`
}

type validationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps classified failures to their response bodies. Anything unclassified
// is logged in full and surfaced as a generic 500; internal error text never
// reaches the client.
func writeError(w http.ResponseWriter, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "validation failed",
			Details: validationIssues(verrs),
		})
		return
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.HTTPStatus, errorBody{Error: apiErr.Message})
		return
	}

	slog.Error("unhandled error", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
}

func validationIssues(verrs validation.Errors) []validationIssue {
	issues := make([]validationIssue, 0, len(verrs))
	for field, fieldErr := range verrs {
		issues = append(issues, validationIssue{Field: field, Message: fieldErr.Error()})
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i].Field < issues[j].Field })
	return issues
}

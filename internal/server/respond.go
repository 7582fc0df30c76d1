package server

import (
	"encoding/json"
	"net/http"
)

// RespondJSON marshals data before writing headers so an encoding failure
// never leaves a partial response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

// ProblemDetail is an RFC 7807 error body
type ProblemDetail struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// RespondError writes an RFC 7807 problem response
func RespondError(w http.ResponseWriter, status int, detail string) {
	respondProblem(w, ProblemDetail{
		Type:   errorTypeFromStatus(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}

// RespondValidationError writes a 400 problem listing the offending parameters
func RespondValidationError(w http.ResponseWriter, fields map[string]string) {
	respondProblem(w, ProblemDetail{
		Type:   errorTypeFromStatus(http.StatusBadRequest),
		Title:  http.StatusText(http.StatusBadRequest),
		Status: http.StatusBadRequest,
		Detail: "invalid request parameters",
		Fields: fields,
	})
}

func respondProblem(w http.ResponseWriter, problem ProblemDetail) {
	payload, err := json.Marshal(problem)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
		return
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(problem.Status)
	w.Write(payload)
}

func errorTypeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.1"
	case http.StatusNotFound:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.4"
	case http.StatusMethodNotAllowed:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.5"
	case http.StatusInternalServerError:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.1"
	default:
		return "about:blank"
	}
}

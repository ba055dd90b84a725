package response

import (
	"encoding/json"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const problemMediaType = "application/problem+json"

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
	Meta    meta        `json:"meta"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type meta struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// problemDetails follows RFC 7807 with two extension members, code and
// request_id, so clients can correlate failures with server logs.
type problemDetails struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail"`
	Instance  string `json:"instance"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeAs(w, "application/json", status, envelope{Success: true, Data: data, Meta: requestMeta(r)})
}

func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}) {
	if acceptsProblemJSON(r) {
		writeAs(w, problemMediaType, status, problemDetails{
			Type:      problemType(code),
			Title:     problemTitle(code, status),
			Status:    status,
			Detail:    message,
			Instance:  r.URL.Path,
			Code:      code,
			RequestID: requestMeta(r).RequestID,
		})
		return
	}
	writeAs(w, "application/json", status, envelope{
		Success: false,
		Error:   &apiError{Code: code, Message: message, Details: details},
		Meta:    requestMeta(r),
	})
}

func writeAs(w http.ResponseWriter, contentType string, status int, body interface{}) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func requestMeta(r *http.Request) meta {
	id := chimiddleware.GetReqID(r.Context())
	if id == "" {
		id = r.Header.Get("X-Request-Id")
	}
	if id == "" {
		id = "req-unknown"
	}
	return meta{RequestID: id, Timestamp: time.Now().UTC()}
}

// acceptsProblemJSON reports whether any Accept member names
// application/problem+json with a nonzero quality value.
func acceptsProblemJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mediaType, params, err := mime.ParseMediaType(part)
		if err != nil || !strings.EqualFold(mediaType, problemMediaType) {
			continue
		}
		if raw, ok := params["q"]; ok {
			if q, err := strconv.ParseFloat(raw, 64); err == nil && q <= 0 {
				continue
			}
		}
		return true
	}
	return false
}

func problemType(code string) string {
	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(code)), "_", "-")
	if slug == "" {
		slug = "unknown"
	}
	return "urn:problem:fastits:" + slug
}

var problemTitles = map[string]string{
	"BAD_REQUEST":        "Bad Request",
	"NOT_FOUND":          "Not Found",
	"CONFLICT":           "Conflict",
	"UNPROCESSABLE":      "Unprocessable Content",
	"INTERNAL":           "Internal Server Error",
	"RATE_LIMITED":       "Too Many Requests",
	"DEPENDENCY_UNREADY": "Service Unavailable",
}

func problemTitle(code string, status int) string {
	if title, ok := problemTitles[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return title
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "Error"
}

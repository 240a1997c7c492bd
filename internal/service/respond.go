package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/storage"
	"github.com/mmynk/foodgram/internal/validation"
)

// apiError is an error with a fixed HTTP status and body.
type apiError struct {
	status int
	body   any
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d: %v", e.status, e.body)
}

// badRequest reports a request-level problem as {"detail": msg}.
func badRequest(msg string) error {
	return &apiError{status: http.StatusBadRequest, body: detail(msg)}
}

// fieldError reports a problem with one input field as {"field": [msg]}.
func fieldError(field, msg string) error {
	return &apiError{status: http.StatusBadRequest, body: map[string][]string{field: {msg}}}
}

func forbidden() error {
	return &apiError{status: http.StatusForbidden, body: detail("You do not have permission to perform this action.")}
}

func notFound() error {
	return &apiError{status: http.StatusNotFound, body: detail("Not found.")}
}

func detail(msg string) map[string]string {
	return map[string]string{"detail": msg}
}

// handlerFunc is an HTTP handler that reports failures as errors.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts fn to http.HandlerFunc, rendering any returned error.
func (s *Server) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			s.respondError(w, r, err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apiError
	var valErr *validation.RequestValidationError

	switch {
	case errors.As(err, &apiErr):
		respondJSON(w, apiErr.status, apiErr.body)
	case errors.As(err, &valErr):
		respondJSON(w, http.StatusBadRequest, valErr.Fields())
	case errors.Is(err, storage.ErrNotFound):
		respondJSON(w, http.StatusNotFound, detail("Not found."))
	case errors.Is(err, auth.ErrMissingToken):
		respondJSON(w, http.StatusUnauthorized, detail(auth.ErrMissingToken.Error()))
	default:
		s.logger.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimiddleware.GetReqID(r.Context()),
			"error", err,
		)
		respondJSON(w, http.StatusInternalServerError, detail("Internal server error."))
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

func noContent(w http.ResponseWriter) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// decodeJSON reads the request body into v and validates it. Bodies over
// the router's size limit are rejected with 413.
func decodeJSON(r *http.Request, v any) error {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &apiError{
				status: http.StatusRequestEntityTooLarge,
				body:   detail(fmt.Sprintf("Request body must be at most %d bytes.", tooLarge.Limit)),
			}
		}
		return badRequest("Failed to read request body.")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return badRequest("JSON parse error - " + err.Error())
	}
	if err := validation.ValidateStruct(v); err != nil {
		return err
	}
	return nil
}

// pathID parses a numeric URL parameter. Non-numeric IDs are reported as
// not found, the same as IDs that do not exist.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, notFound()
	}
	return id, nil
}

// page is a decoded page-number pagination request.
type page struct {
	number int
	limit  int
}

func (p page) offset() int {
	return (p.number - 1) * p.limit
}

type pageResponse struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// parsePage reads the page and limit query parameters. An unparsable
// limit falls back to the default; an unparsable page is not found.
func (s *Server) parsePage(r *http.Request) (page, error) {
	p := page{number: 1, limit: s.opts.DefaultPageSize}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			p.limit = min(n, s.opts.MaxPageSize)
		}
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		// The offset (n-1)*limit must fit in an int.
		if err != nil || n < 1 || n > math.MaxInt/p.limit {
			return page{}, &apiError{status: http.StatusNotFound, body: detail("Invalid page.")}
		}
		p.number = n
	}
	return p, nil
}

// paginated wraps results in the page envelope. Requesting a page past
// the end is not found, except for the first page of an empty list.
func (s *Server) paginated(r *http.Request, p page, total int, results any) (*pageResponse, error) {
	if p.number > 1 && p.offset() >= total {
		return nil, &apiError{status: http.StatusNotFound, body: detail("Invalid page.")}
	}

	resp := &pageResponse{Count: total, Results: results}
	if p.offset()+p.limit < total {
		next := s.pageURL(r, p.number+1)
		resp.Next = &next
	}
	if p.number > 1 {
		prev := s.pageURL(r, p.number-1)
		resp.Previous = &prev
	}
	return resp, nil
}

func (s *Server) pageURL(r *http.Request, number int) string {
	q := r.URL.Query()
	if number == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u := url.URL{Path: r.URL.Path, RawQuery: q.Encode()}
	return s.opts.BaseURL + u.String()
}

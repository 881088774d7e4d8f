package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/hyperjump/narraview/internal/catalog"
	"github.com/hyperjump/narraview/internal/normalize"
	"github.com/hyperjump/narraview/internal/render"
	"github.com/hyperjump/narraview/internal/render/topic"
	"github.com/hyperjump/narraview/internal/selection"
	"github.com/hyperjump/narraview/internal/views"
	"go.uber.org/zap"
)

const (
	headerState      = "X-Narraview-State"
	defaultWidth     = 960
	defaultHeight    = 600
	maxDimension     = 10000
	defaultListLimit = 50
	maxListLimit     = 500
	defaultHitLimit  = 20
	maxHitLimit      = 200
)

// requestError is a malformed request parameter or body.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...interface{}) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps err to a status: 400 for request errors, 404 for unknown datasets or
// sessions, 422 for invalid dataset content, 500 otherwise.
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	var reqErr *requestError
	var valErr *normalize.ValidationError
	switch {
	case errors.As(err, &reqErr):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, selection.ErrUnknownSession):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &valErr), errors.Is(err, normalize.ErrMalformedDataset):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid request body")
	}
	return nil
}

func queryInt(r *http.Request, name string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min {
		return 0, badRequest("%s must be an integer >= %d", name, min)
	}
	if n > max {
		n = max
	}
	return n, nil
}

func queryFloat(r *http.Request, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f <= 0 || f > maxDimension {
		return 0, badRequest("%s must be a positive number up to %d", name, maxDimension)
	}
	return f, nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badRequest("%s must be a boolean", name)
	}
	return &b, nil
}

func parseMode(raw string) (render.Mode, error) {
	mode, err := render.ParseMode(raw)
	if err != nil {
		return "", badRequest("%v", err)
	}
	return mode, nil
}

// viewportFrom reads width and height, falling back to def for absent values.
func viewportFrom(r *http.Request, def render.Viewport) (render.Viewport, error) {
	if def.Width <= 0 {
		def.Width = defaultWidth
	}
	if def.Height <= 0 {
		def.Height = defaultHeight
	}
	width, err := queryFloat(r, "width", def.Width)
	if err != nil {
		return render.Viewport{}, err
	}
	height, err := queryFloat(r, "height", def.Height)
	if err != nil {
		return render.Viewport{}, err
	}
	return render.Viewport{Width: width, Height: height}, nil
}

// viewParams reads attribute, labels and layout, rejecting unknown topic layouts. attribute is only set when present in
// the query, so an empty value can select entity identity.
func viewParams(r *http.Request) (views.Params, error) {
	var p views.Params
	q := r.URL.Query()
	if _, ok := q["attribute"]; ok {
		attr := q.Get("attribute")
		p.Attribute = &attr
	}
	labels, err := queryBool(r, "labels")
	if err != nil {
		return p, err
	}
	p.Labels = labels
	p.Layout = q.Get("layout")
	if p.Layout != "" {
		if _, err := topic.ParseKind(p.Layout); err != nil {
			return p, badRequest("%v", err)
		}
	}
	return p, nil
}

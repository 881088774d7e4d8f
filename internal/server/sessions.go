package server

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/render"
	"github.com/hyperjump/narraview/internal/render/entity"
	"github.com/hyperjump/narraview/internal/render/topic"
	"github.com/hyperjump/narraview/internal/selection"
	"github.com/hyperjump/narraview/internal/views"
)

type createSessionRequest struct {
	DatasetID string  `json:"dataset_id"`
	Mode      string  `json:"mode"`
	Attribute *string `json:"attribute,omitempty"`
	Layout    string  `json:"layout,omitempty"`
	Width     float64 `json:"width,omitempty"`
	Height    float64 `json:"height,omitempty"`
}

type sessionResponse struct {
	SessionID string          `json:"session_id"`
	DatasetID string          `json:"dataset_id"`
	Mode      render.Mode     `json:"mode"`
	Attribute string          `json:"attribute"`
	Layout    string          `json:"layout,omitempty"`
	Viewport  render.Viewport `json:"viewport"`
	Selected  *int            `json:"selected"`
	Column    string          `json:"hovered_column,omitempty"`
	Tooltip   selection.View  `json:"tooltip"`
	Expanded  map[string]bool `json:"expanded"`
	CreatedAt time.Time       `json:"created_at"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	if req.DatasetID == "" {
		s.respondErr(w, badRequest("dataset_id is required"))
		return
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if _, err := s.store.Get(r.Context(), req.DatasetID); err != nil {
		s.respondErr(w, err)
		return
	}
	if _, err := topic.ParseKind(req.Layout); err != nil {
		s.respondErr(w, badRequest("%v", err))
		return
	}
	if req.Width < 0 || req.Height < 0 {
		s.respondErr(w, badRequest("width and height must not be negative"))
		return
	}
	attr := s.config.Entity.DefaultAttribute
	if req.Attribute != nil {
		attr = *req.Attribute
	}
	vp := render.Viewport{Width: req.Width, Height: req.Height}
	if vp.Width == 0 {
		vp.Width = defaultWidth
	}
	if vp.Height == 0 {
		vp.Height = defaultHeight
	}
	sess := s.sessions.Create(selection.SessionConfig{
		DatasetID: req.DatasetID,
		Mode:      mode,
		Attribute: attr,
		Layout:    req.Layout,
		Viewport:  vp,
	})
	s.respondJSON(w, http.StatusCreated, map[string]string{"session_id": sess.ID})
}

func (s *Server) session(r *http.Request) (*selection.Session, error) {
	return s.sessions.Get(chi.URLParam(r, "sid"))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	resp := sessionResponse{
		SessionID: sess.ID,
		DatasetID: sess.Config.DatasetID,
		Mode:      sess.Config.Mode,
		Attribute: sess.Config.Attribute,
		Layout:    sess.Config.Layout,
		Viewport:  sess.Viewport(),
		Tooltip:   sess.Coordinator.TooltipView(),
		Expanded:  sess.Expanded(),
		CreatedAt: sess.CreatedAt,
	}
	if i, ok := sess.Coordinator.Selected(); ok {
		resp.Selected = &i
	}
	resp.Column, _ = sess.Coordinator.HoveredColumn()
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(chi.URLParam(r, "sid")); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

// sessionEvent resolves an event of the session's dataset by index.
func (s *Server) sessionEvent(r *http.Request, sess *selection.Session, index int) (*models.Dataset, models.Event, error) {
	ds, err := s.store.Get(r.Context(), sess.Config.DatasetID)
	if err != nil {
		return nil, models.Event{}, err
	}
	for _, ev := range ds.Events {
		if ev.Index == index {
			return ds, ev, nil
		}
	}
	return nil, models.Event{}, badRequest("event %d not in dataset", index)
}

// chipColors colors an entity tooltip's chips like the session's entity columns.
func (s *Server) chipColors(sess *selection.Session, ds *models.Dataset, ev models.Event) map[string]string {
	attr := sess.Config.Attribute
	opts := s.views.EntityOptions(views.Params{Attribute: &attr})
	return entity.Layout(ds.Events, sess.Viewport().Width, opts).EntityColors(ev)
}

type hoverRequest struct {
	EventIndex *int    `json:"event_index"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Source     string  `json:"source,omitempty"`
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	var req hoverRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	if req.EventIndex == nil {
		s.respondErr(w, badRequest("event_index is required"))
		return
	}
	src := sess.Config.Mode
	if req.Source != "" {
		if src, err = parseMode(req.Source); err != nil {
			s.respondErr(w, err)
			return
		}
	}
	ds, ev, err := s.sessionEvent(r, sess, *req.EventIndex)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if src == render.ModeEntity {
		sess.Coordinator.ShowColored(ev, req.X, req.Y, src, s.chipColors(sess, ds, ev))
	} else {
		sess.Coordinator.Show(ev, req.X, req.Y, src)
	}
	s.respondJSON(w, http.StatusOK, sess.Coordinator.TooltipView())
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	sess.Coordinator.UpdatePosition(req.X, req.Y)
	s.respondJSON(w, http.StatusOK, sess.Coordinator.TooltipView())
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	sess.Coordinator.Hide()
	s.respondJSON(w, http.StatusOK, sess.Coordinator.TooltipView())
}

func (s *Server) handleHoverColumn(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	var req struct {
		Column string `json:"column"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	if req.Column == "" {
		sess.Coordinator.LeaveColumn()
	} else {
		sess.Coordinator.HoverColumn(req.Column)
	}
	column, _ := sess.Coordinator.HoveredColumn()
	s.respondJSON(w, http.StatusOK, map[string]string{"hovered_column": column})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	var req struct {
		EventIndex *int `json:"event_index"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	var selected *int
	if req.EventIndex == nil {
		sess.Coordinator.Deselect()
	} else {
		if _, _, err := s.sessionEvent(r, sess, *req.EventIndex); err != nil {
			s.respondErr(w, err)
			return
		}
		selected = sess.Coordinator.Select(*req.EventIndex)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"selected": selected})
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	var vp render.Viewport
	if err := decodeBody(r, &vp); err != nil {
		s.respondErr(w, err)
		return
	}
	if vp.Width <= 0 || vp.Height <= 0 || vp.Width > maxDimension || vp.Height > maxDimension {
		s.respondErr(w, badRequest("width and height must be positive numbers up to %d", maxDimension))
		return
	}
	sess.Trigger.Request(vp)
	s.respondJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (s *Server) handleSessionRender(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	ds, err := s.store.Get(r.Context(), sess.Config.DatasetID)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	attr := sess.Config.Attribute
	p := views.Params{
		Attribute: &attr,
		Layout:    sess.Config.Layout,
		Expanded:  sess.Expanded(),
	}
	if p.Labels, err = queryBool(r, "labels"); err != nil {
		s.respondErr(w, err)
		return
	}
	s.writeSVG(w, sess.Config.Mode, p, ds, sess.Viewport(), sess.Coordinator.Highlight())
}

func (s *Server) handleToggleGroup(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil || key == "" {
		s.respondErr(w, badRequest("invalid group key"))
		return
	}
	expanded := sess.ToggleGroup(key)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"key": key, "expanded": expanded})
}

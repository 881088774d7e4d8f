package server

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/narraview/internal/catalog"
	"github.com/hyperjump/narraview/internal/export"
	"github.com/hyperjump/narraview/internal/models"
	"github.com/hyperjump/narraview/internal/normalize"
	"github.com/hyperjump/narraview/internal/render"
	"github.com/hyperjump/narraview/internal/search"
	"github.com/hyperjump/narraview/internal/views"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	count, err := s.store.Count(ctx)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	resp := map[string]interface{}{
		"datasets": count,
		"sessions": len(s.sessions.IDs()),
	}
	if s.index != nil {
		if docs, err := s.index.DocCount(); err == nil {
			resp["indexed_events"] = docs
		}
	}
	diskBytes, err := catalog.DiskUsageBytes(s.config.Storage.DatabasePath, s.config.Storage.IndexPath)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0, 0, 1<<31-1)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	limit, err := queryInt(r, "limit", defaultListLimit, 1, maxListLimit)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	items, err := s.store.List(r.Context(), offset, limit)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	total, err := s.store.Count(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	if items == nil {
		items = []models.DatasetSummary{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"datasets": items, "total": total})
}

func (s *Server) dataset(r *http.Request) (*models.Dataset, error) {
	return s.store.Get(r.Context(), chi.URLParam(r, "id"))
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, ds)
}

func (s *Server) handleAttributes(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"attributes": normalize.AvailableAttributes(ds.Events),
		"default":    s.config.Entity.DefaultAttribute,
	})
}

func (s *Server) handleMentions(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	attr := s.config.Entity.DefaultAttribute
	if q := r.URL.Query(); q.Has("attribute") {
		attr = q.Get("attribute")
	}
	exclude := s.config.Entity.ExcludeUnknown
	if v, err := queryBool(r, "exclude_unknown"); err != nil {
		s.respondErr(w, err)
		return
	} else if v != nil {
		exclude = *v
	}
	mentions := normalize.EntityMentions(ds.Events, attr, exclude)
	if mentions == nil {
		mentions = []models.EntityMention{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"attribute": attr, "mentions": mentions})
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	topics := normalize.TopicFrequencies(ds.Events)
	if topics == nil {
		topics = []models.TopicFrequency{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"topics": topics})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	mode, err := parseMode(chi.URLParam(r, "mode"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	p, err := viewParams(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	var hl render.Highlight
	var def render.Viewport
	if sid := r.URL.Query().Get("session"); sid != "" {
		sess, err := s.sessions.Get(sid)
		if err != nil {
			s.respondErr(w, err)
			return
		}
		hl = sess.Coordinator.Highlight()
		p.Expanded = sess.Expanded()
		def = sess.Viewport()
	}
	vp, err := viewportFrom(r, def)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.writeSVG(w, mode, p, ds, vp, hl)
}

// writeSVG renders into a buffer first so a failing renderer never leaves a partial body.
func (s *Server) writeSVG(w http.ResponseWriter, mode render.Mode, p views.Params, ds *models.Dataset, vp render.Viewport, hl render.Highlight) {
	var buf bytes.Buffer
	state, err := s.views.Render(&buf, mode, p, ds, vp, hl)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set(headerState, string(state))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	mode, err := parseMode(chi.URLParam(r, "mode"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	p, err := viewParams(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	vp, err := viewportFrom(r, render.Viewport{})
	if err != nil {
		s.respondErr(w, err)
		return
	}
	g, err := s.views.Layout(mode, p, ds, vp)
	if err != nil {
		s.respondErr(w, badRequest("%v", err))
		return
	}
	s.respondJSON(w, http.StatusOK, g)
}

type searchHit struct {
	search.Hit
	Label     string `json:"label"`
	MainTopic string `json:"main_topic"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		s.respondError(w, http.StatusNotImplemented, "search not enabled")
		return
	}
	ds, err := s.dataset(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondErr(w, badRequest("q is required"))
		return
	}
	limit, err := queryInt(r, "limit", defaultHitLimit, 1, maxHitLimit)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	fuzzy, err := queryBool(r, "fuzzy")
	if err != nil {
		s.respondErr(w, err)
		return
	}
	hits, err := s.index.Search(r.Context(), ds.ID, query, limit, fuzzy != nil && *fuzzy)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	byIndex := make(map[int]models.Event, len(ds.Events))
	for _, ev := range ds.Events {
		byIndex[ev.Index] = ev
	}
	out := make([]searchHit, 0, len(hits))
	for _, h := range hits {
		ev, ok := byIndex[h.EventIndex]
		if !ok {
			continue
		}
		out = append(out, searchHit{Hit: h, Label: ev.Label(), MainTopic: ev.Topic.MainTopic})
	}
	resp := map[string]interface{}{"query": query, "hits": out}
	if len(out) == 0 {
		if corrected, ok := search.NewVocabulary(ds.Events).Correct(query); ok {
			resp["suggestion"] = corrected
		}
	}
	s.logger.Debug("search request", zap.String("dataset_id", ds.ID), zap.String("query", query), zap.Int("hits", len(out)))
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ds, err := s.dataset(r)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	attr := s.config.Entity.DefaultAttribute
	if q := r.URL.Query(); q.Has("attribute") {
		attr = q.Get("attribute")
	}
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, ds, attr); err != nil {
		s.respondErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="narraview-export.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

package handlers

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/bobmcallan/fund-portal/internal/common"
	"github.com/bobmcallan/fund-portal/internal/session"
	"github.com/bobmcallan/fund-portal/internal/view"
)

// PageHandler serves the portal page and its static assets.
type PageHandler struct {
	logger   *common.Logger
	renderer *view.Renderer
	sessions *session.Manager
	devMode  bool
}

// NewPageHandler creates a new page handler.
func NewPageHandler(logger *common.Logger, renderer *view.Renderer, sessions *session.Manager, devMode bool) *PageHandler {
	return &PageHandler{
		logger:   logger,
		renderer: renderer,
		sessions: sessions,
		devMode:  devMode,
	}
}

// ServeIndex handles GET /. Every page load starts a new session, so each
// tab keeps its own state and a reload starts clean.
func (h *PageHandler) ServeIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !RequireMethod(w, r, "GET") {
		return
	}

	s := h.sessions.Create()
	h.logger.Debug().Str("session", s.ID()).Str("remote", r.RemoteAddr).Msg("new ui session")

	p := s.View()
	p.DevMode = h.devMode

	var buf bytes.Buffer
	if err := h.renderer.Page(&buf, p); err != nil {
		h.logger.Error().Err(err).Str("session", s.ID()).Msg("failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

// StaticFileHandler serves static files (CSS, JS, images).
func (h *PageHandler) StaticFileHandler(w http.ResponseWriter, r *http.Request) {
	staticDir := filepath.Join(h.renderer.PagesDir(), "static")

	path := strings.TrimPrefix(r.URL.Path, "/static/")
	fullPath := filepath.Join(staticDir, filepath.FromSlash(path))

	// Security: prevent directory traversal
	absStaticDir, _ := filepath.Abs(staticDir)
	absFullPath, _ := filepath.Abs(fullPath)
	if !strings.HasPrefix(absFullPath, absStaticDir+string(filepath.Separator)) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, fullPath)
}

// Package web serves the single-page form UI: an index template plus
// embedded static assets with a process-start build id for cache busting.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/promptwizard-app/promptwizard/internal/config"
)

//go:embed static templates
var assets embed.FS

// Handler renders the index page and serves static files.
type Handler struct {
	tmpl    *template.Template
	cfg     config.AppConfig
	paid    bool
	enhance bool
	buildID int64
}

// NewHandler parses the embedded index template. buildID changes on every
// process start so browsers re-fetch the static assets after a deploy.
func NewHandler(cfg config.AppConfig, paid, enhanceEnabled bool) (*Handler, error) {
	tmpl, err := template.ParseFS(assets, "templates/index.html")
	if err != nil {
		return nil, err
	}
	return &Handler{
		tmpl:    tmpl,
		cfg:     cfg,
		paid:    paid,
		enhance: enhanceEnabled,
		buildID: time.Now().Unix(),
	}, nil
}

// Index renders the form page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"AppName":    h.cfg.Name,
		"Paid":       h.paid,
		"EnhanceOn":  h.enhance,
		"ShowUsage":  h.cfg.ShowUsage,
		"ShowTimer":  h.cfg.ShowTimer,
		"Year":       time.Now().Year(),
		"BuildID":    h.buildID,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.Execute(w, data); err != nil {
		slog.Error("rendering index", "error", err)
	}
}

// Static returns the handler for the embedded asset files.
func (h *Handler) Static() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		// embed guarantees the directory exists
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

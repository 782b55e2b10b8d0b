package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/Eroleice/Quant-Cat/internal/domain"
	"github.com/Eroleice/Quant-Cat/internal/pipeline"
	"github.com/Eroleice/Quant-Cat/internal/report"
)

// latestFilesBase is where the HTML preview resolves report images from.
const latestFilesBase = "/api/reports/latest/files/"

// ReportHandlers triggers report runs and serves the latest report.
type ReportHandlers struct {
	runner  ReportRunner
	devMode bool
	now     func() time.Time
	log     zerolog.Logger
}

// RunRequest is the optional body of POST /api/reports/run.
type RunRequest struct {
	Date        string `json:"date"` // YYYY-MM-DD or YYYYMMDD, default today
	Dev         *bool  `json:"dev"`
	SkipPublish bool   `json:"skip_publish"`
}

// NewReportHandlers creates a new report handlers instance
func NewReportHandlers(runner ReportRunner, devMode bool, log zerolog.Logger) *ReportHandlers {
	return &ReportHandlers{
		runner:  runner,
		devMode: devMode,
		now:     time.Now,
		log:     log.With().Str("component", "report_handlers").Logger(),
	}
}

// HandleRun starts a report run in the background.
// POST /api/reports/run
func (h *ReportHandlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	date, err := pipeline.ResolveDate(req.Date, h.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dev := h.devMode
	if req.Dev != nil {
		dev = *req.Dev
	}

	if h.runner.Running() {
		writeError(w, http.StatusConflict, pipeline.ErrRunInProgress.Error())
		return
	}

	opts := pipeline.Options{Date: date, Dev: dev, SkipPublish: req.SkipPublish}
	go func() {
		if _, err := h.runner.Run(context.Background(), opts); err != nil {
			h.log.Error().Err(err).Str("trade_date", domain.FormatTradeDate(date)).Msg("Triggered report run failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":     "accepted",
		"trade_date": domain.FormatTradeDate(date),
		"dev":        dev,
	})
}

// HandleLatest returns the result of the most recent run.
// GET /api/reports/latest
func (h *ReportHandlers) HandleLatest(w http.ResponseWriter, r *http.Request) {
	last := h.runner.Last()
	if last == nil {
		writeError(w, http.StatusNotFound, "no report has been produced yet")
		return
	}
	writeJSON(w, http.StatusOK, last)
}

// HandleLatestHTML renders the latest markdown report as an HTML page.
// GET /api/reports/latest/html
func (h *ReportHandlers) HandleLatestHTML(w http.ResponseWriter, r *http.Request) {
	last := h.runner.Last()
	if last == nil || !last.Succeeded() {
		writeError(w, http.StatusNotFound, "no report has been produced yet")
		return
	}

	var mdName string
	for _, name := range last.Files {
		if strings.EqualFold(filepath.Ext(name), ".md") {
			mdName = name
			break
		}
	}
	if mdName == "" {
		writeError(w, http.StatusNotFound, "latest report has no markdown rendition")
		return
	}

	source, err := os.ReadFile(filepath.Join(last.Dir, mdName))
	if err != nil {
		h.log.Error().Err(err).Str("file", mdName).Msg("Failed to read report")
		writeError(w, http.StatusInternalServerError, "failed to read report")
		return
	}

	title := strings.TrimSuffix(mdName, filepath.Ext(mdName))
	if date, err := domain.ParseTradeDate(last.TradeDate); err == nil {
		title = report.NewDocument(date).Title
	}

	page, err := report.RenderHTML(source, title, latestFilesBase)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to render report HTML")
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// HandleLatestFile serves one file of the latest run folder.
// GET /api/reports/latest/files/{name}
func (h *ReportHandlers) HandleLatestFile(w http.ResponseWriter, r *http.Request) {
	last := h.runner.Last()
	if last == nil {
		writeError(w, http.StatusNotFound, "no report has been produced yet")
		return
	}

	name := chi.URLParam(r, "name")
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}

	path := filepath.Join(last.Dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	http.ServeFile(w, r, path)
}

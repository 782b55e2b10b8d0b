// Package pipeline runs the daily report: market breadth, style ranking,
// single-stock attribution, rendering and publishing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Eroleice/Quant-Cat/internal/domain"
	"github.com/Eroleice/Quant-Cat/internal/events"
	"github.com/Eroleice/Quant-Cat/internal/modules/attribution"
	"github.com/Eroleice/Quant-Cat/internal/modules/breadth"
	"github.com/Eroleice/Quant-Cat/internal/modules/charts"
	"github.com/Eroleice/Quant-Cat/internal/modules/factors"
	"github.com/Eroleice/Quant-Cat/internal/modules/sampler"
	"github.com/Eroleice/Quant-Cat/internal/modules/style"
	"github.com/Eroleice/Quant-Cat/internal/report"
)

// Stage names, in execution order.
const (
	StagePrepare          = "prepare"
	StageBreadth          = "breadth"
	StageBreadthChart     = "breadth_chart"
	StageStyle            = "style"
	StageSample           = "sample"
	StageAttribution      = "attribution"
	StageAttributionChart = "attribution_chart"
	StageRender           = "render"
	StagePublish          = "publish"
)

const module = "pipeline"

// ErrRunInProgress is returned when a run is requested while another one
// has not finished.
var ErrRunInProgress = errors.New("a report run is already in progress")

// Publisher uploads a finished run folder and returns the object keys.
type Publisher interface {
	Publish(ctx context.Context, dir string, date time.Time) ([]string, error)
}

// Config holds the report settings.
type Config struct {
	OutputDir   string
	SampleIndex string
	Exclude     sampler.Exclusion
}

// Deps are the collaborators of a Runner. Publisher, Bus and Sampler are
// optional.
type Deps struct {
	Provider      domain.DataProvider
	Factors       *factors.Dataset
	ChartRenderer charts.Renderer
	Renderers     []report.Renderer
	Publisher     Publisher
	Bus           *events.Bus
	Sampler       *sampler.Sampler
}

// Options select the trade date and mode of one run.
type Options struct {
	Date        time.Time
	Dev         bool
	SkipPublish bool
}

// Result describes a finished or failed run.
type Result struct {
	RunID      string                 `json:"run_id"`
	TradeDate  string                 `json:"trade_date"`
	Dev        bool                   `json:"dev"`
	Dir        string                 `json:"dir"`
	Files      []string               `json:"files"`
	Market     bool                   `json:"market_section"`
	Breadth    *breadth.Histogram     `json:"breadth,omitempty"`
	Ranking    style.Ranking          `json:"ranking,omitempty"`
	Security   domain.SampledSecurity `json:"security"`
	Loadings   *attribution.Result    `json:"attribution,omitempty"`
	Published  []string               `json:"published,omitempty"`
	Stage      string                 `json:"failed_stage,omitempty"`
	Error      string                 `json:"error,omitempty"`
	StartedAt  time.Time              `json:"started_at"`
	FinishedAt time.Time              `json:"finished_at"`
}

// Succeeded reports whether the run produced a document.
func (r *Result) Succeeded() bool {
	return r.Error == ""
}

// Runner executes report runs one at a time.
type Runner struct {
	provider  domain.DataProvider
	analyzer  *breadth.Analyzer
	ranker    *style.Ranker
	sampler   *sampler.Sampler
	model     *attribution.Model
	charts    *charts.Service
	renderers []report.Renderer
	publisher Publisher
	bus       *events.Bus
	cfg       Config
	log       zerolog.Logger

	running atomic.Bool
	mu      sync.RWMutex
	last    *Result
}

// NewRunner wires the analytics modules around deps.
func NewRunner(deps Deps, cfg Config, log zerolog.Logger) *Runner {
	s := deps.Sampler
	if s == nil {
		s = sampler.NewSampler(deps.Provider, log)
	}
	return &Runner{
		provider:  deps.Provider,
		analyzer:  breadth.NewAnalyzer(log),
		ranker:    style.NewRanker(deps.Provider, log),
		sampler:   s,
		model:     attribution.NewModel(deps.Provider, deps.Factors, log),
		charts:    charts.NewService(deps.ChartRenderer, log),
		renderers: deps.Renderers,
		publisher: deps.Publisher,
		bus:       deps.Bus,
		cfg:       cfg,
		log:       log.With().Str("service", module).Logger(),
	}
}

// Running reports whether a run is in progress.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Last returns the most recent run result, or nil.
func (r *Runner) Last() *Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Run produces the report for opts.Date. The first failing stage aborts
// the run with a *domain.StageError; no partial document is written.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer r.running.Store(false)

	res := &Result{
		RunID:     uuid.NewString(),
		TradeDate: domain.FormatTradeDate(opts.Date),
		Dev:       opts.Dev,
		Dir:       RunDir(r.cfg.OutputDir, opts.Date, opts.Dev),
		StartedAt: time.Now(),
	}
	log := r.log.With().Str("run_id", res.RunID).Str("trade_date", res.TradeDate).Logger()
	log.Info().Bool("dev", opts.Dev).Str("dir", res.Dir).Msg("Report run started")
	r.emit(&events.RunStatusData{RunID: res.RunID, TradeDate: res.TradeDate, Status: "started", Dev: opts.Dev, Dir: res.Dir})

	err := r.execute(ctx, opts, res, log)
	res.FinishedAt = time.Now()
	duration := res.FinishedAt.Sub(res.StartedAt)

	if err != nil {
		var stageErr *domain.StageError
		if errors.As(err, &stageErr) {
			res.Stage = stageErr.Stage
		}
		res.Error = err.Error()
		log.Error().Err(err).Str("stage", res.Stage).Dur("elapsed", duration).Msg("Report run aborted")
		r.emit(&events.RunStatusData{
			RunID: res.RunID, TradeDate: res.TradeDate, Status: "failed", Dev: opts.Dev,
			Stage: res.Stage, Error: res.Error, Duration: duration.Seconds(),
		})
	} else {
		log.Info().Strs("files", res.Files).Dur("elapsed", duration).Msg("Report run completed")
		r.emit(&events.RunStatusData{
			RunID: res.RunID, TradeDate: res.TradeDate, Status: "completed", Dev: opts.Dev,
			Dir: res.Dir, Files: res.Files, Duration: duration.Seconds(),
		})
	}

	r.mu.Lock()
	r.last = res
	r.mu.Unlock()

	return res, err
}

func (r *Runner) execute(ctx context.Context, opts Options, res *Result, log zerolog.Logger) error {
	if err := r.stage(res, StagePrepare, func() error {
		if err := os.MkdirAll(res.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create run folder: %v: %w", err, domain.ErrRenderFailure)
		}
		return nil
	}); err != nil {
		return err
	}

	doc := report.NewDocument(opts.Date)

	if IsTradingWeekday(opts.Date) {
		if err := r.marketSection(ctx, opts.Date, res, doc); err != nil {
			return err
		}
	} else {
		log.Info().Str("weekday", opts.Date.Weekday().String()).Msg("Not a trading weekday, skipping market section")
	}

	if err := r.stockSection(ctx, res, doc); err != nil {
		return err
	}

	doc.Add(report.DisclaimerSection())

	if err := r.stage(res, StageRender, func() error {
		for _, renderer := range r.renderers {
			path, err := report.WriteFile(renderer, doc, res.Dir)
			if err != nil {
				return err
			}
			res.Files = append(res.Files, filepath.Base(path))
		}
		return nil
	}); err != nil {
		return err
	}

	if r.publisher == nil || opts.Dev || opts.SkipPublish {
		return nil
	}
	return r.stage(res, StagePublish, func() error {
		keys, err := r.publisher.Publish(ctx, res.Dir, opts.Date)
		if err != nil {
			return err
		}
		res.Published = keys
		data := &events.PublishedData{RunID: res.RunID, Keys: keys}
		if b, ok := r.publisher.(interface{ Bucket() string }); ok {
			data.Bucket = b.Bucket()
		}
		r.emit(data)
		return nil
	})
}

func (r *Runner) marketSection(ctx context.Context, date time.Time, res *Result, doc *report.Document) error {
	var hist breadth.Histogram
	if err := r.stage(res, StageBreadth, func() error {
		returns, err := r.provider.DailyReturns(ctx, date)
		if err != nil {
			return err
		}
		hist, err = r.analyzer.Analyze(returns)
		return err
	}); err != nil {
		return err
	}

	var chartPath string
	if err := r.stage(res, StageBreadthChart, func() error {
		var err error
		chartPath, err = r.charts.RenderTo(ctx, breadth.ChartSpec(hist), res.Dir, breadth.ChartFilename)
		return err
	}); err != nil {
		return err
	}

	var ranking style.Ranking
	if err := r.stage(res, StageStyle, func() error {
		var err error
		ranking, err = r.ranker.Rank(ctx, date)
		return err
	}); err != nil {
		return err
	}

	res.Market = true
	res.Breadth = &hist
	res.Ranking = ranking
	doc.Add(report.MarketSection(hist, chartPath, ranking))
	return nil
}

func (r *Runner) stockSection(ctx context.Context, res *Result, doc *report.Document) error {
	var security domain.SampledSecurity
	if err := r.stage(res, StageSample, func() error {
		var err error
		security, err = r.sampler.Pick(ctx, r.cfg.SampleIndex, r.cfg.Exclude)
		return err
	}); err != nil {
		return err
	}
	res.Security = security

	var result *attribution.Result
	if err := r.stage(res, StageAttribution, func() error {
		var err error
		result, err = r.model.Attribute(ctx, security)
		return err
	}); err != nil {
		return err
	}

	var chartPath string
	if err := r.stage(res, StageAttributionChart, func() error {
		var err error
		chartPath, err = r.charts.RenderTo(ctx, attribution.ChartSpec(result), res.Dir, attribution.ChartFilename)
		return err
	}); err != nil {
		return err
	}

	res.Loadings = result
	doc.Add(report.StockSection(result, chartPath))
	return nil
}

// stage runs fn and wraps its failure with the stage name.
func (r *Runner) stage(res *Result, name string, fn func() error) error {
	r.emit(&events.StageStatusData{RunID: res.RunID, Stage: name, Status: "started"})
	start := time.Now()

	if err := fn(); err != nil {
		r.emit(&events.StageStatusData{
			RunID:    res.RunID,
			Stage:    name,
			Status:   "failed",
			Error:    err.Error(),
			Duration: time.Since(start).Seconds(),
		})
		return &domain.StageError{Stage: name, Err: err}
	}

	elapsed := time.Since(start)
	r.log.Debug().Str("run_id", res.RunID).Str("stage", name).Dur("elapsed", elapsed).Msg("Stage completed")
	r.emit(&events.StageStatusData{RunID: res.RunID, Stage: name, Status: "completed", Duration: elapsed.Seconds()})
	return nil
}

func (r *Runner) emit(data events.EventData) {
	if r.bus != nil {
		r.bus.Emit(module, data)
	}
}

package pipeline

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eroleice/Quant-Cat/internal/domain"
	"github.com/Eroleice/Quant-Cat/internal/events"
	"github.com/Eroleice/Quant-Cat/internal/modules/charts"
	"github.com/Eroleice/Quant-Cat/internal/modules/factors"
	"github.com/Eroleice/Quant-Cat/internal/modules/sampler"
	"github.com/Eroleice/Quant-Cat/internal/report"
	testutil "github.com/Eroleice/Quant-Cat/internal/testing"
)

const sampleIndex = "000300.SH"

type fakePublisher struct {
	mu    sync.Mutex
	dirs  []string
	err   error
	keys  []string
	calls int
}

func (p *fakePublisher) Publish(_ context.Context, dir string, _ time.Time) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.dirs = append(p.dirs, dir)
	if p.err != nil {
		return nil, p.err
	}
	return p.keys, nil
}

func (p *fakePublisher) Bucket() string { return "reports" }

type fixture struct {
	provider  *testutil.FakeProvider
	charts    *testutil.FakeChartRenderer
	publisher *fakePublisher
	bus       *events.Bus
	outDir    string
	cfg       Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	provider := testutil.NewFakeProvider()
	provider.SetDaily(testutil.FixtureDate, testutil.NewDailyReturnFixtures())
	provider.SetIndexDaily("000300.SH", domain.IndexReturn{Code: "000300.SH", TradeDate: testutil.FixtureDate, Close: 3800.12, PctChange: 0.85, Volume: 1.2e8, Amount: 2.5e8})
	provider.SetIndexDaily("000905.SH", domain.IndexReturn{Code: "000905.SH", TradeDate: testutil.FixtureDate, Close: 6100.5, PctChange: -0.4, Volume: 9e7, Amount: 1.6e8})
	provider.SetWeights(sampleIndex, testutil.NewConstituentFixtures(sampleIndex))
	provider.SetProfile(domain.SecurityProfile{Code: "600519.SH", Symbol: "600519", Name: "贵州茅台"})
	provider.SetMonthly("600519.SH", testutil.NewMonthlyReturnFixtures(12, func(i int) float64 {
		return 1.5*math.Sin(float64(i)) + 0.3*float64(i%4)
	}))

	outDir := t.TempDir()
	return &fixture{
		provider:  provider,
		charts:    &testutil.FakeChartRenderer{},
		publisher: &fakePublisher{keys: []string{"daily/2022-11-09/[20221109] QC Daily.pdf"}},
		bus:       events.NewBus(zerolog.Nop()),
		outDir:    outDir,
		cfg: Config{
			OutputDir:   outDir,
			SampleIndex: sampleIndex,
			Exclude:     sampler.NewExclusion("000858.SZ", "300750.SZ"),
		},
	}
}

func factorDataset(t *testing.T) *factors.Dataset {
	t.Helper()
	rows := make([]domain.FactorRow, 0, 12)
	for i := 0; i < 12; i++ {
		x := float64(i)
		rows = append(rows, domain.FactorRow{
			TradeMonth:   202201 + i,
			MarketExcess: 3 * math.Sin(x),
			Size:         2 * math.Cos(1.7*x),
			Value:        float64(i%5) - 2 + 0.1*x,
			RiskFree:     0.2,
		})
	}
	ds, err := factors.New(rows)
	require.NoError(t, err)
	return ds
}

func (f *fixture) runner(t *testing.T, chartRenderer charts.Renderer) *Runner {
	t.Helper()
	if chartRenderer == nil {
		chartRenderer = f.charts
	}
	return NewRunner(Deps{
		Provider:      f.provider,
		Factors:       factorDataset(t),
		ChartRenderer: chartRenderer,
		Renderers:     []report.Renderer{report.MarkdownRenderer{}, report.PDFRenderer{}},
		Publisher:     f.publisher,
		Bus:           f.bus,
	}, f.cfg, zerolog.Nop())
}

func TestRun_TradingDayProducesFullReport(t *testing.T) {
	f := newFixture(t)
	r := f.runner(t, nil)

	var mu sync.Mutex
	var seen []events.EventType
	f.bus.SubscribeAll(func(e *events.Event) {
		mu.Lock()
		seen = append(seen, e.Type)
		mu.Unlock()
	})

	res, err := r.Run(context.Background(), Options{Date: testutil.FixtureDate})
	require.NoError(t, err)

	assert.True(t, res.Succeeded())
	assert.True(t, res.Market)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "20221109", res.TradeDate)
	assert.Equal(t, filepath.Join(f.outDir, "2022-11-09"), res.Dir)
	assert.Equal(t, "600519.SH", res.Security.Code)
	assert.Equal(t, "贵州茅台", res.Security.Name)
	require.NotNil(t, res.Loadings)
	assert.Len(t, res.Loadings.Rows, 12)
	require.Len(t, res.Ranking, 2)
	assert.Equal(t, "沪深300", res.Ranking[0].Name)
	require.NotNil(t, res.Breadth)
	assert.Equal(t, 5, res.Breadth.Total())

	assert.ElementsMatch(t, []string{"[20221109] QC Daily.md", "[20221109] QC Daily.pdf"}, res.Files)
	for _, name := range append(res.Files, "marketImage.png", "ffChart.png") {
		_, err := os.Stat(filepath.Join(res.Dir, name))
		assert.NoError(t, err, name)
	}

	assert.Equal(t, 1, f.publisher.calls)
	assert.Equal(t, []string{res.Dir}, f.publisher.dirs)
	assert.Equal(t, f.publisher.keys, res.Published)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, events.RunStarted, seen[0])
	assert.Equal(t, events.RunCompleted, seen[len(seen)-1])
	assert.Contains(t, seen, events.ReportPublished)
	assert.Same(t, res, r.Last())
}

func TestRun_WeekendSkipsMarketSection(t *testing.T) {
	f := newFixture(t)
	r := f.runner(t, nil)
	saturday := time.Date(2022, 11, 12, 0, 0, 0, 0, domain.Shanghai)

	res, err := r.Run(context.Background(), Options{Date: saturday})
	require.NoError(t, err)

	assert.False(t, res.Market)
	assert.Nil(t, res.Breadth)
	assert.Equal(t, 0, f.provider.Calls("DailyReturns"))
	assert.Equal(t, 0, f.provider.Calls("IndexDailyReturn"))
	assert.Len(t, f.charts.Specs, 1)

	md, err := os.ReadFile(filepath.Join(res.Dir, "[20221112] QC Daily.md"))
	require.NoError(t, err)
	assert.NotContains(t, string(md), "股票涨跌")
	assert.Contains(t, string(md), "贵州茅台")
}

func TestRun_DevModeUsesDevFolderAndSkipsPublish(t *testing.T) {
	f := newFixture(t)
	r := f.runner(t, nil)

	res, err := r.Run(context.Background(), Options{Date: testutil.FixtureDate, Dev: true})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(f.outDir, "dev"), res.Dir)
	assert.Equal(t, 0, f.publisher.calls)
	assert.Empty(t, res.Published)
}

func TestRun_SkipPublish(t *testing.T) {
	f := newFixture(t)
	r := f.runner(t, nil)

	_, err := r.Run(context.Background(), Options{Date: testutil.FixtureDate, SkipPublish: true})
	require.NoError(t, err)
	assert.Equal(t, 0, f.publisher.calls)
}

func TestRun_AbortsOnExhaustedSample(t *testing.T) {
	f := newFixture(t)
	f.cfg.Exclude = sampler.NewExclusion("600519.SH", "000858.SZ", "300750.SZ")
	r := f.runner(t, nil)

	var failed *events.RunStatusData
	f.bus.Subscribe(events.RunFailed, func(e *events.Event) {
		failed = e.Data.(*events.RunStatusData)
	})
	var failedStages []*events.StageStatusData
	f.bus.Subscribe(events.StageFailed, func(e *events.Event) {
		failedStages = append(failedStages, e.Data.(*events.StageStatusData))
	})

	res, err := r.Run(context.Background(), Options{Date: testutil.FixtureDate})
	require.Error(t, err)

	require.Len(t, failedStages, 1)
	assert.Equal(t, StageSample, failedStages[0].Stage)
	assert.Equal(t, res.RunID, failedStages[0].RunID)
	assert.Contains(t, failedStages[0].Error, "exhausted")

	var stageErr *domain.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageSample, stageErr.Stage)
	assert.ErrorIs(t, err, domain.ErrSampleExhausted)

	assert.False(t, res.Succeeded())
	assert.Equal(t, StageSample, res.Stage)
	assert.Empty(t, res.Files)
	_, statErr := os.Stat(filepath.Join(res.Dir, "[20221109] QC Daily.pdf"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, 0, f.publisher.calls)

	require.NotNil(t, failed)
	assert.Equal(t, StageSample, failed.Stage)
}

func TestRun_AbortsOnMissingBreadthData(t *testing.T) {
	f := newFixture(t)
	r := f.runner(t, nil)
	thursday := time.Date(2022, 11, 10, 0, 0, 0, 0, domain.Shanghai)

	_, err := r.Run(context.Background(), Options{Date: thursday})
	require.Error(t, err)

	var stageErr *domain.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageBreadth, stageErr.Stage)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestRun_ChartFailureIsRenderFailure(t *testing.T) {
	f := newFixture(t)
	f.charts.Err = errors.New("chart service down")
	r := f.runner(t, nil)

	_, err := r.Run(context.Background(), Options{Date: testutil.FixtureDate})
	require.Error(t, err)

	var stageErr *domain.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, StageBreadthChart, stageErr.Stage)
	assert.ErrorIs(t, err, domain.ErrRenderFailure)
}

func TestRun_PublishFailureAbortsAfterRender(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("bucket not found")
	r := f.runner(t, nil)

	res, err := r.Run(context.Background(), Options{Date: testutil.FixtureDate})
	require.Error(t, err)
	assert.Equal(t, StagePublish, res.Stage)
	assert.Len(t, res.Files, 2)
}

type blockingRenderer struct {
	entered chan struct{}
	release chan struct{}
	inner   *testutil.FakeChartRenderer
	once    sync.Once
}

func (b *blockingRenderer) Render(ctx context.Context, spec charts.Spec, path string) error {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.inner.Render(ctx, spec, path)
}

func TestRun_RejectsConcurrentRun(t *testing.T) {
	f := newFixture(t)
	blocking := &blockingRenderer{
		entered: make(chan struct{}),
		release: make(chan struct{}),
		inner:   f.charts,
	}
	r := f.runner(t, blocking)

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background(), Options{Date: testutil.FixtureDate, Dev: true})
		done <- err
	}()

	<-blocking.entered
	assert.True(t, r.Running())

	_, err := r.Run(context.Background(), Options{Date: testutil.FixtureDate, Dev: true})
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(blocking.release)
	require.NoError(t, <-done)
	assert.False(t, r.Running())
}

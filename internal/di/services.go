package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Eroleice/Quant-Cat/internal/clients/quickchart"
	"github.com/Eroleice/Quant-Cat/internal/clients/tushare"
	"github.com/Eroleice/Quant-Cat/internal/config"
	"github.com/Eroleice/Quant-Cat/internal/events"
	"github.com/Eroleice/Quant-Cat/internal/modules/factors"
	"github.com/Eroleice/Quant-Cat/internal/modules/sampler"
	"github.com/Eroleice/Quant-Cat/internal/pipeline"
	"github.com/Eroleice/Quant-Cat/internal/publish"
	"github.com/Eroleice/Quant-Cat/internal/report"
)

// InitializeServices creates the clients, the factor dataset, the
// publisher and the report runner.
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.EventBus = events.NewBus(log)

	container.TushareClient = tushare.NewClient(tushare.Config{
		Token:         cfg.TushareToken,
		BaseURL:       cfg.TushareURL,
		Timeout:       cfg.ProviderTimeout,
		MaxRetries:    cfg.ProviderMaxRetries,
		RatePerMinute: cfg.ProviderRatePerMin,
	}, container.ClientDataRepo, log)

	container.QuickChartClient = quickchart.NewClient(cfg.QuickChartURL, cfg.ProviderTimeout, cfg.ProviderMaxRetries, log)

	ds, err := factors.LoadFile(cfg.FactorDataPath, factors.Options{Scale: cfg.FactorDataScale})
	if err != nil {
		return err
	}
	container.Factors = ds
	log.Info().Int("months", ds.Len()).Str("path", cfg.FactorDataPath).Msg("Factor data loaded")

	if cfg.Publish.Enabled {
		publisher, err := publish.New(ctx, publish.Config{
			Bucket:          cfg.Publish.Bucket,
			Prefix:          cfg.Publish.Prefix,
			Region:          cfg.Publish.Region,
			Endpoint:        cfg.Publish.Endpoint,
			AccessKeyID:     cfg.Publish.AccessKeyID,
			SecretAccessKey: cfg.Publish.SecretAccessKey,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to initialize publisher: %w", err)
		}
		container.Publisher = publisher
	}

	if cfg.ReportFontPath == "" {
		log.Warn().Msg("REPORT_FONT_PATH not set, PDF text outside Latin-1 will not render")
	}

	deps := pipeline.Deps{
		Provider:      container.TushareClient,
		Factors:       container.Factors,
		ChartRenderer: container.QuickChartClient,
		Renderers: []report.Renderer{
			report.PDFRenderer{FontPath: cfg.ReportFontPath},
			report.MarkdownRenderer{},
		},
		Bus: container.EventBus,
	}
	// a nil *publish.Publisher must not become a non-nil interface
	if container.Publisher != nil {
		deps.Publisher = container.Publisher
	}

	container.Runner = pipeline.NewRunner(deps, pipeline.Config{
		OutputDir:   cfg.OutputDir,
		SampleIndex: cfg.SampleIndex,
		Exclude:     sampler.NewExclusion(cfg.SampleExclude...),
	}, log)

	return nil
}

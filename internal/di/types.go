// Package di wires the report service's dependencies.
package di

import (
	"github.com/Eroleice/Quant-Cat/internal/clientdata"
	"github.com/Eroleice/Quant-Cat/internal/clients/quickchart"
	"github.com/Eroleice/Quant-Cat/internal/clients/tushare"
	"github.com/Eroleice/Quant-Cat/internal/database"
	"github.com/Eroleice/Quant-Cat/internal/events"
	"github.com/Eroleice/Quant-Cat/internal/modules/factors"
	"github.com/Eroleice/Quant-Cat/internal/pipeline"
	"github.com/Eroleice/Quant-Cat/internal/publish"
	"github.com/Eroleice/Quant-Cat/internal/scheduler"
)

// Container holds all application dependencies. ClientDataDB and
// ClientDataRepo are nil when the provider cache is disabled; Publisher is
// nil when publishing is disabled.
type Container struct {
	ClientDataDB   *database.DB
	ClientDataRepo *clientdata.Repository

	TushareClient    *tushare.Client
	QuickChartClient *quickchart.Client
	Factors          *factors.Dataset
	Publisher        *publish.Publisher

	EventBus *events.Bus
	Runner   *pipeline.Runner
}

// JobInstances holds the scheduled jobs, for manual triggering.
type JobInstances struct {
	DailyReport        scheduler.Job
	CacheCleanup       scheduler.Job
	CheckCacheDatabase scheduler.Job
}

// Close releases the container's resources.
func (c *Container) Close() error {
	if c == nil || c.ClientDataDB == nil {
		return nil
	}
	return c.ClientDataDB.Close()
}

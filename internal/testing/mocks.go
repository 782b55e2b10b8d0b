package testing

import (
	"context"
	"image"
	"image/png"
	"os"
	"sync"
	"time"

	"github.com/Eroleice/Quant-Cat/internal/domain"
	"github.com/Eroleice/Quant-Cat/internal/modules/charts"
)

// FakeProvider is an in-memory domain.DataProvider for tests.
type FakeProvider struct {
	mu         sync.RWMutex
	daily      map[string][]domain.SecurityReturn
	indexDaily map[string][]domain.IndexReturn
	weights    map[string][]domain.IndexWeight
	monthly    map[string][]domain.MonthlyReturn
	profiles   map[string]domain.SecurityProfile
	err        error
	calls      map[string]int
}

// NewFakeProvider creates an empty fake provider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		daily:      make(map[string][]domain.SecurityReturn),
		indexDaily: make(map[string][]domain.IndexReturn),
		weights:    make(map[string][]domain.IndexWeight),
		monthly:    make(map[string][]domain.MonthlyReturn),
		profiles:   make(map[string]domain.SecurityProfile),
		calls:      make(map[string]int),
	}
}

// SetDaily sets the cross-section returned for a trade date.
func (p *FakeProvider) SetDaily(tradeDate time.Time, rows []domain.SecurityReturn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.daily[domain.FormatTradeDate(tradeDate)] = rows
}

// SetIndexDaily sets the rows returned for an index regardless of date.
func (p *FakeProvider) SetIndexDaily(code string, rows ...domain.IndexReturn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.indexDaily[code] = rows
}

// SetWeights sets index_weight rows for an index. A zero-date query
// returns only the rows of the latest snapshot.
func (p *FakeProvider) SetWeights(indexCode string, rows []domain.IndexWeight) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.weights[indexCode] = rows
}

// SetMonthly sets monthly bars for a security.
func (p *FakeProvider) SetMonthly(code string, rows []domain.MonthlyReturn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.monthly[code] = rows
}

// SetProfile sets the stock_basic row for a security.
func (p *FakeProvider) SetProfile(profile domain.SecurityProfile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[profile.Code] = profile
}

// SetError makes every call fail with err. Pass nil to clear.
func (p *FakeProvider) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Calls returns how many times method was invoked.
func (p *FakeProvider) Calls(method string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.calls[method]
}

func (p *FakeProvider) record(method string) error {
	p.calls[method]++
	return p.err
}

// MonthlyReturns returns up to limit bars for code.
func (p *FakeProvider) MonthlyReturns(_ context.Context, code string, limit int) ([]domain.MonthlyReturn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("MonthlyReturns"); err != nil {
		return nil, err
	}
	rows := p.monthly[code]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return append([]domain.MonthlyReturn(nil), rows...), nil
}

// DailyReturns returns the cross-section set for tradeDate.
func (p *FakeProvider) DailyReturns(_ context.Context, tradeDate time.Time) ([]domain.SecurityReturn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("DailyReturns"); err != nil {
		return nil, err
	}
	return append([]domain.SecurityReturn(nil), p.daily[domain.FormatTradeDate(tradeDate)]...), nil
}

// IndexConstituents filters index_weight rows by date. A zero date
// selects the latest snapshot.
func (p *FakeProvider) IndexConstituents(_ context.Context, indexCode string, tradeDate time.Time) ([]domain.IndexWeight, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("IndexConstituents"); err != nil {
		return nil, err
	}

	rows := p.weights[indexCode]
	if tradeDate.IsZero() {
		for _, r := range rows {
			if r.TradeDate.After(tradeDate) {
				tradeDate = r.TradeDate
			}
		}
	}

	out := make([]domain.IndexWeight, 0, len(rows))
	for _, r := range rows {
		if domain.FormatTradeDate(r.TradeDate) == domain.FormatTradeDate(tradeDate) {
			out = append(out, r)
		}
	}
	return out, nil
}

// IndexDailyReturn returns the rows set for code.
func (p *FakeProvider) IndexDailyReturn(_ context.Context, indexCode string, _ time.Time) ([]domain.IndexReturn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("IndexDailyReturn"); err != nil {
		return nil, err
	}
	return append([]domain.IndexReturn(nil), p.indexDaily[indexCode]...), nil
}

// SecurityProfile returns the profile set for code, or no rows.
func (p *FakeProvider) SecurityProfile(_ context.Context, code string) ([]domain.SecurityProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.record("SecurityProfile"); err != nil {
		return nil, err
	}
	profile, ok := p.profiles[code]
	if !ok {
		return nil, nil
	}
	return []domain.SecurityProfile{profile}, nil
}

// FakeChartRenderer writes a blank PNG for every spec it receives.
type FakeChartRenderer struct {
	mu    sync.Mutex
	Specs []charts.Spec
	Paths []string
	Err   error
}

// Render records the spec and writes a small white PNG to path.
func (r *FakeChartRenderer) Render(_ context.Context, spec charts.Spec, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Specs = append(r.Specs, spec)
	r.Paths = append(r.Paths, path)

	w, h := spec.Size()
	img := image.NewGray(image.Rect(0, 0, w/10, h/10))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

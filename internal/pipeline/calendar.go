package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Eroleice/Quant-Cat/internal/domain"
)

// IsTradingWeekday reports whether date falls Monday to Friday. Exchange
// holidays are not modelled; the provider returns no rows for them.
func IsTradingWeekday(date time.Time) bool {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// ResolveDate parses a YYYY-MM-DD or YYYYMMDD date in exchange time. An
// empty string resolves to the current exchange-local day.
func ResolveDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		local := now.In(domain.Shanghai)
		return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, domain.Shanghai), nil
	}

	for _, layout := range []string{"2006-01-02", domain.TradeDateLayout} {
		if t, err := time.ParseInLocation(layout, s, domain.Shanghai); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or YYYYMMDD", s)
}

// RunDir returns the run folder: outputDir/dev in dev mode, otherwise
// outputDir/YYYY-MM-DD.
func RunDir(outputDir string, date time.Time, dev bool) string {
	if dev {
		return filepath.Join(outputDir, "dev")
	}
	return filepath.Join(outputDir, date.Format("2006-01-02"))
}

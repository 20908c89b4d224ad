package commands

import (
	"errors"
	"fmt"

	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/components/chrono"
	"github.com/StanfordBioinformatics/trajectoread-monitor/internal/window"
)

var errUsage = errors.New("usage")

type windowFlags struct {
	Cron     bool
	Year     int
	YearSet  bool
	Month    int
	MonthSet bool
}

// resolveWindow picks the month to total, either the previous month in
// cron mode or the one given by --year and --month, never both.
func resolveWindow(flags windowFlags, clock chrono.API) (window.MonthWindow, error) {
	explicit := flags.YearSet || flags.MonthSet
	switch {
	case flags.Cron && explicit:
		return window.MonthWindow{}, fmt.Errorf("%w: --cron cannot be combined with --year or --month", errUsage)
	case flags.Cron:
		return window.Previous(clock.Now()), nil
	case flags.YearSet && flags.MonthSet:
		return window.New(flags.Year, flags.Month, clock.Location())
	case explicit:
		return window.MonthWindow{}, fmt.Errorf("%w: --year and --month must be given together", errUsage)
	}
	return window.MonthWindow{}, fmt.Errorf("%w: either --cron or --year and --month is required", errUsage)
}

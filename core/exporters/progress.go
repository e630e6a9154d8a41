package exporters

import (
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/fbz-tec/dbport/internal/logger"
	"github.com/fbz-tec/dbport/internal/ui"
)

// progressThreshold is the row count above which a progress bar is shown.
const progressThreshold = 10_000

// progress reports per-row export progress to the bar and the debug log.
type progress struct {
	label   string
	start   time.Time
	lastLog time.Time
	count   int
	bar     *progressbar.ProgressBar
}

func newProgress(label string, total int, options ExportOptions) *progress {
	p := &progress{label: label, start: time.Now(), lastLog: time.Now()}
	if options.ProgressBar && total >= progressThreshold && !logger.IsQuiet() {
		p.bar = ui.NewProgressBar(total)
	}
	return p
}

func (p *progress) step() {
	p.count++
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
	if logger.IsVerbose() && (p.count%10000 == 0 || time.Since(p.lastLog) > 2*time.Second) {
		elapsed := time.Since(p.start)
		logger.Debug("%d %s rows written (%.0f rows/s, elapsed %v)",
			p.count, p.label, float64(p.count)/elapsed.Seconds(), elapsed.Truncate(100*time.Millisecond))
		p.lastLog = time.Now()
	}
}

func (p *progress) done() {
	if p.bar != nil {
		_ = p.bar.Finish()
		_ = p.bar.Clear()
		p.bar = nil
	}
	elapsed := time.Since(p.start)
	logger.Debug("%s export completed: %d rows written in %v", p.label, p.count, elapsed.Round(time.Millisecond))
}

package ui

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
)

// Spinner shows indeterminate progress for work without a row loop, such as
// connecting or writing a workbook. A nil *Spinner is a no-op.
type Spinner struct {
	bar *progressbar.ProgressBar
}

func NewSpinner(message string) *Spinner {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(message),
		progressbar.OptionSetWriter(Output),
		progressbar.OptionEnableColorCodes(false),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Spinner{bar: bar}
}

func (s *Spinner) Update(message string) {
	if s == nil || s.bar == nil {
		return
	}
	s.bar.Describe(message)
	_ = s.bar.Add(1)
}

func (s *Spinner) Stop(message string) {
	if s == nil || s.bar == nil {
		return
	}
	_ = s.bar.Finish()
	if message != "" {
		fmt.Fprintln(Output, message)
	}
	s.bar = nil
}

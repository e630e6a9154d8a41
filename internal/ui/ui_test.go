package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := Output
	Output = &buf
	t.Cleanup(func() { Output = old })
	return &buf
}

func TestSpinnerLifecycle(t *testing.T) {
	buf := captureOutput(t)

	s := NewSpinner("Connecting")
	s.Update("Still connecting")
	s.Stop("Connected")
	assert.Contains(t, buf.String(), "Connected")

	assert.NotPanics(t, func() { s.Stop("again") })

	var nilSpinner *Spinner
	assert.NotPanics(t, func() {
		nilSpinner.Update("x")
		nilSpinner.Stop("y")
	})
}

func TestProgressBar(t *testing.T) {
	captureOutput(t)
	bar := NewProgressBar(3)
	assert.NoError(t, bar.Add(3))
	assert.EqualValues(t, 3, bar.State().CurrentNum)
}

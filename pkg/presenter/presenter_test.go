package presenter

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestPresenter() (*TerminalPresenter, *bytes.Buffer, *bytes.Buffer) {
	var output, errorOutput bytes.Buffer
	return NewWithOptions(&output, &errorOutput, ColorNever), &output, &errorOutput
}

func TestError(t *testing.T) {
	p, output, errorOutput := newTestPresenter()

	p.Error(errors.New("boom"), "loading skills")
	assert.Contains(t, errorOutput.String(), "[ERROR] loading skills: boom")
	assert.Empty(t, output.String())

	errorOutput.Reset()
	p.Error(errors.New("boom"), "")
	assert.Contains(t, errorOutput.String(), "[ERROR] boom")

	errorOutput.Reset()
	p.Error(nil, "ignored")
	assert.Empty(t, errorOutput.String())
}

func TestMessages(t *testing.T) {
	p, output, _ := newTestPresenter()

	p.Success("done")
	p.Warning("careful")
	p.Info("plain")
	p.Section("Skills")

	out := output.String()
	assert.Contains(t, out, "✓ done")
	assert.Contains(t, out, "⚠ careful")
	assert.Contains(t, out, "plain\n")
	assert.Contains(t, out, "Skills\n------")
}

func TestQuietMode(t *testing.T) {
	p, output, errorOutput := newTestPresenter()
	p.SetQuiet(true)

	p.Success("done")
	p.Warning("careful")
	p.Info("plain")
	p.Section("Skills")
	assert.Empty(t, output.String())

	// Errors always surface.
	p.Error(errors.New("boom"), "")
	assert.Contains(t, errorOutput.String(), "boom")
}

func TestDetectColorMode(t *testing.T) {
	tests := []struct {
		name       string
		noColor    string
		forceColor string
		expected   ColorMode
	}{
		{"NO_COLOR set", "1", "", ColorNever},
		{"SKILLSERVE_COLOR always", "", "always", ColorAlways},
		{"SKILLSERVE_COLOR never", "", "never", ColorNever},
		{"default", "", "", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("NO_COLOR")
			os.Unsetenv("SKILLSERVE_COLOR")
			if tt.noColor != "" {
				t.Setenv("NO_COLOR", tt.noColor)
			}
			if tt.forceColor != "" {
				t.Setenv("SKILLSERVE_COLOR", tt.forceColor)
			}

			assert.Equal(t, tt.expected, detectColorMode())
		})
	}
}

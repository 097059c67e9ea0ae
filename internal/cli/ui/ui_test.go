package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"deviceRotate/internal/device"
	"deviceRotate/internal/runner"
	"deviceRotate/internal/session"
)

func TestFormatOutcome(t *testing.T) {
	tests := []struct {
		res   session.Result
		icon  string
		color string
		text  string
	}{
		{session.Result{Outcome: session.OutcomeSuccess, Health: session.HealthOK}, IconCheckmark, ColorGreen, "ok"},
		{session.Result{Outcome: session.OutcomeSuccess, Health: session.HealthNotFound}, IconAlert, ColorYellow, "404"},
		{session.Result{Outcome: session.OutcomeSuccess, Health: session.HealthUnknown}, IconCheckmark, ColorYellow, "загружена, статус неизвестен"},
		{session.Result{Outcome: session.OutcomeError, Health: session.HealthNotFound}, IconCross, ColorRed, "ошибка"},
	}
	for _, tt := range tests {
		icon, color, text := FormatOutcome(tt.res)
		assert.Equal(t, tt.icon, icon)
		assert.Equal(t, tt.color, color)
		assert.Equal(t, tt.text, text)
	}
}

func TestSummaryLine(t *testing.T) {
	res := session.Result{
		Iteration:      3,
		Profile:        device.Profile{Name: "Pixel 6"},
		Outcome:        session.OutcomeError,
		ScreenshotPath: "screenshots/error-3-Pixel-6.png",
		Err:            errors.New("net::ERR_NAME_NOT_RESOLVED"),
	}
	snap := runner.Snapshot{Total: 4, Success: 3, Errors: 1, SuccessRate: 75}

	line := SummaryLine(res, snap)
	assert.Contains(t, line, "#3 Pixel 6")
	assert.Contains(t, line, "успешно 3, ошибок 1, 404: 0, всего 4 (75.0%)")
	assert.Contains(t, line, "error-3-Pixel-6.png")
	assert.Contains(t, line, "ERR_NAME_NOT_RESOLVED")
}

func TestNotFoundAlert(t *testing.T) {
	res := session.Result{Iteration: 1, Profile: device.Profile{Name: "iPad (gen 7)"}}
	alert := NotFoundAlert("https://example.test/promo", res)
	assert.Contains(t, alert, "https://example.test/promo")
	assert.Contains(t, alert, "iPad (gen 7)")
}

func TestPrintWelcome(t *testing.T) {
	var buf bytes.Buffer
	PrintWelcome(&buf, "https://example.test", device.Rotation(), time.Minute, 1000)

	out := buf.String()
	assert.Contains(t, out, "https://example.test")
	assert.Contains(t, out, "1m0s")
	assert.Contains(t, out, "Galaxy S23")
	assert.Contains(t, out, "CTRL+C")
}

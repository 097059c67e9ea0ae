package ui

import (
	"fmt"
	"strings"

	"deviceRotate/internal/runner"
	"deviceRotate/internal/session"
)

// FormatOutcome возвращает иконку, цвет и текст для итога итерации
func FormatOutcome(res session.Result) (icon, color, text string) {
	switch {
	case res.Outcome == session.OutcomeError:
		return IconCross, ColorRed, "ошибка"
	case res.Health == session.HealthNotFound:
		return IconAlert, ColorYellow, "404"
	case res.Health == session.HealthUnknown:
		return IconCheckmark, ColorYellow, "загружена, статус неизвестен"
	default:
		return IconCheckmark, ColorGreen, "ok"
	}
}

// SummaryLine одна строка на итерацию: устройство, итог и накопленные счетчики.
func SummaryLine(res session.Result, snap runner.Snapshot) string {
	icon, color, text := FormatOutcome(res)

	var b strings.Builder
	fmt.Fprintf(&b, "%s%s #%d %s%s %s%s%s", ColorBold, IconPhone, res.Iteration, res.Profile.Name, ColorReset, color, icon+" "+text, ColorReset)
	fmt.Fprintf(&b, " %s| %s успешно %d, ошибок %d, 404: %d, всего %d (%.1f%%)%s",
		ColorGray, IconChart, snap.Success, snap.Errors, snap.NotFound, snap.Total, snap.SuccessRate, ColorReset)
	if res.ScreenshotPath != "" {
		fmt.Fprintf(&b, " %s %s", IconCamera, res.ScreenshotPath)
	}
	if res.Err != nil {
		fmt.Fprintf(&b, "\n   %s%v%s", ColorRed, res.Err, ColorReset)
	}
	return b.String()
}

// NotFoundAlert отдельное предупреждение, когда целевая страница отдает 404.
func NotFoundAlert(targetURL string, res session.Result) string {
	return fmt.Sprintf("%s%s %s отдает 404 на %s (итерация %d)%s",
		ColorRed+ColorBold, IconAlert, targetURL, res.Profile.Name, res.Iteration, ColorReset)
}

// FinalSummary итог всего прогона.
func FinalSummary(snap runner.Snapshot) string {
	return fmt.Sprintf("%s%s Итого: %d итераций, успешно %d, ошибок %d, 404: %d, успешность %.1f%%, p50 %dms, p95 %dms%s",
		ColorCyan, IconChart, snap.Total, snap.Success, snap.Errors, snap.NotFound, snap.SuccessRate, snap.P50Ms, snap.P95Ms, ColorReset)
}

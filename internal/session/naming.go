package session

import (
	"fmt"
	"os"
	"path/filepath"

	"deviceRotate/internal/device"
)

const (
	screenshotPrefix = "screenshot"
	errorPrefix      = "error"
	notFoundSuffix   = "-404-error"
)

// ScreenshotName детерминированный путь скриншота для итерации.
func ScreenshotName(dir string, iteration int, profile device.Profile, health Health) string {
	name := fmt.Sprintf("%s-%d-%s", screenshotPrefix, iteration, device.SanitizeName(profile.Name))
	if health == HealthNotFound {
		name += notFoundSuffix
	}
	return filepath.Join(dir, name+".png")
}

// ErrorScreenshotName путь скриншота, снятого после ошибки.
func ErrorScreenshotName(dir string, iteration int, profile device.Profile) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%d-%s.png", errorPrefix, iteration, device.SanitizeName(profile.Name)))
}

// EnsureOutputDir создает каталог для скриншотов, если его нет.
func EnsureOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("каталог скриншотов %s: %w", dir, err)
	}
	return nil
}

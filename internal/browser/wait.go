package browser

import (
	"strings"

	"github.com/playwright-community/playwright-go"
)

// WaitUntil условие завершения навигации.
type WaitUntil string

const (
	WaitLoad             WaitUntil = "load"
	WaitDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitNetworkIdle      WaitUntil = "networkidle"
	WaitCommit           WaitUntil = "commit"
)

// ParseWaitUntil понимает те же строки, что и playwright; неизвестное значение -> load.
func ParseWaitUntil(s string) WaitUntil {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "domcontentloaded", "dom":
		return WaitDOMContentLoaded
	case "networkidle", "idle":
		return WaitNetworkIdle
	case "commit":
		return WaitCommit
	default:
		return WaitLoad
	}
}

func (w WaitUntil) state() *playwright.WaitUntilState {
	switch w {
	case WaitDOMContentLoaded:
		return playwright.WaitUntilStateDomcontentloaded
	case WaitNetworkIdle:
		return playwright.WaitUntilStateNetworkidle
	case WaitCommit:
		return playwright.WaitUntilStateCommit
	default:
		return playwright.WaitUntilStateLoad
	}
}

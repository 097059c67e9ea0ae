package session

import (
	"context"
	"errors"
	"time"

	"deviceRotate/internal/browser"
)

// NavigationPolicy две попытки: строгая (Primary) и, только при таймауте, ослабленная (Fallback).
type NavigationPolicy struct {
	Primary  browser.WaitUntil
	Fallback browser.WaitUntil
	Timeout  time.Duration
}

func DefaultNavigationPolicy() NavigationPolicy {
	return NavigationPolicy{
		Primary:  browser.WaitNetworkIdle,
		Fallback: browser.WaitDOMContentLoaded,
		Timeout:  60 * time.Second,
	}
}

type Navigation struct {
	Response *browser.Response
	// FellBack true, если страница загрузилась только по Fallback условию.
	FellBack bool
}

// Navigate открывает url по политике. Любая ошибка, кроме таймаута первой попытки,
// возвращается сразу; повторный таймаут тоже фатален.
func Navigate(ctx context.Context, page browser.Page, url string, p NavigationPolicy) (Navigation, error) {
	resp, err := page.Goto(ctx, url, browser.GotoOptions{WaitUntil: p.Primary, Timeout: p.Timeout})
	if err == nil {
		return Navigation{Response: resp}, nil
	}
	if !errors.Is(err, browser.ErrTimeout) || p.Fallback == "" || p.Fallback == p.Primary {
		return Navigation{}, err
	}

	resp, err = page.Goto(ctx, url, browser.GotoOptions{WaitUntil: p.Fallback, Timeout: p.Timeout})
	if err != nil {
		return Navigation{}, err
	}
	return Navigation{Response: resp, FellBack: true}, nil
}

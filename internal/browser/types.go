// Package browser изолирует playwright-go за небольшими интерфейсами,
// чтобы сессии можно было тестировать без реального браузера.
package browser

import (
	"context"
	"errors"
	"time"

	"deviceRotate/internal/device"
)

var (
	// ErrTimeout оборачивает таймауты движка (playwright.ErrTimeout).
	ErrTimeout = errors.New("таймаут браузера")
	// ErrNotStarted возвращается, если драйвер playwright не запущен.
	ErrNotStarted = errors.New("браузер не запущен")
)

// Launcher запускает отдельный процесс браузера на каждую сессию.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

type Browser interface {
	// NewContext создает изолированный контекст (свои cookies и кеш) под профиль устройства.
	NewContext(ctx context.Context, profile device.Profile) (Context, error)
	Close() error
}

type Context interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

type Page interface {
	// Observe подписывает наблюдателя на события страницы. Вызывать до Goto.
	Observe(obs Observer)
	// Goto возвращает nil Response, если движок не отдал ответ (например, about:blank).
	Goto(ctx context.Context, url string, opts GotoOptions) (*Response, error)
	Title() (string, error)
	URL() string
	BodyText(ctx context.Context) (string, error)
	Screenshot(ctx context.Context, opts ScreenshotOptions) error
	Close() error
}

// Observer получает события страницы. Методы вызываются из горутин драйвера.
type Observer interface {
	OnConsole(level, text string)
	OnPageError(err error)
	OnRequestFailed(url, reason string)
	OnResponse(url string, status int)
}

type GotoOptions struct {
	WaitUntil WaitUntil
	Timeout   time.Duration
}

type ScreenshotOptions struct {
	Path     string
	FullPage bool
	Timeout  time.Duration
}

type Response struct {
	URL    string
	Status int
}

type Config struct {
	Engine       string
	Headless     bool
	Install      bool
	BrowsersPath string
	Display      string
	Args         []string
	Timeout      time.Duration
}

package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"deviceRotate/internal/device"
)

// PlaywrightBrowser держит драйвер playwright на весь процесс
// и запускает новый процесс браузера на каждый Launch.
type PlaywrightBrowser struct {
	cfg Config
	mu  sync.Mutex
	pw  *playwright.Playwright
}

func New(cfg Config) *PlaywrightBrowser {
	if cfg.Engine == "" {
		cfg.Engine = "chromium"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &PlaywrightBrowser{
		cfg: cfg,
	}
}

// Start поднимает драйвер playwright. При Install=true сначала ставит бинарники браузера.
func (b *PlaywrightBrowser) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pw != nil {
		return nil
	}

	if b.cfg.BrowsersPath != "" {
		if err := os.Setenv("PLAYWRIGHT_BROWSERS_PATH", b.cfg.BrowsersPath); err != nil {
			return err
		}
	}

	if b.cfg.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{b.cfg.Engine}}); err != nil {
			return fmt.Errorf("не удалось установить браузер %s: %w", b.cfg.Engine, err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return fmt.Errorf("не удалось запустить playwright: %w", err)
	}
	b.pw = pw
	return nil
}

// Stop останавливает драйвер. Повторный вызов безопасен.
func (b *PlaywrightBrowser) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pw == nil {
		return nil
	}
	err := b.pw.Stop()
	b.pw = nil
	return err
}

func (b *PlaywrightBrowser) browserType() (playwright.BrowserType, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pw == nil {
		return nil, ErrNotStarted
	}

	switch b.cfg.Engine {
	case "chromium":
		return b.pw.Chromium, nil
	case "firefox":
		return b.pw.Firefox, nil
	case "webkit":
		return b.pw.WebKit, nil
	default:
		return nil, fmt.Errorf("неизвестный движок браузера: %s", b.cfg.Engine)
	}
}

func (b *PlaywrightBrowser) getEnvMap() map[string]string {
	if b.cfg.Display != "" {
		return map[string]string{
			"DISPLAY": b.cfg.Display,
		}
	}
	return nil
}

func (b *PlaywrightBrowser) Launch(ctx context.Context) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bt, err := b.browserType()
	if err != nil {
		return nil, err
	}

	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(b.cfg.Headless),
		Args:     b.cfg.Args,
		Timeout:  playwright.Float(float64(b.cfg.Timeout.Milliseconds())),
	}
	if env := b.getEnvMap(); env != nil {
		opts.Env = env
	}

	br, err := bt.Launch(opts)
	if err != nil {
		return nil, fmt.Errorf("запуск %s: %w", b.cfg.Engine, err)
	}

	return &playwrightInstance{browser: br, engine: b.cfg.Engine, timeout: b.cfg.Timeout}, nil
}

type playwrightInstance struct {
	browser playwright.Browser
	engine  string
	timeout time.Duration
}

func (i *playwrightInstance) NewContext(ctx context.Context, profile device.Profile) (Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bc, err := i.browser.NewContext(contextOptions(i.engine, profile))
	if err != nil {
		return nil, fmt.Errorf("контекст для %s: %w", profile.Name, err)
	}
	return &playwrightContext{context: bc, timeout: i.timeout}, nil
}

func (i *playwrightInstance) Close() error {
	return i.browser.Close()
}

// contextOptions переносит поля профиля в опции контекста.
// Firefox не поддерживает isMobile, поэтому для него флаг не передается.
func contextOptions(engine string, p device.Profile) playwright.BrowserNewContextOptions {
	opts := playwright.BrowserNewContextOptions{
		DeviceScaleFactor: playwright.Float(p.DeviceScaleFactor),
		HasTouch:          playwright.Bool(p.HasTouch),
	}
	if engine != "firefox" {
		opts.IsMobile = playwright.Bool(p.IsMobile)
	}
	if p.Viewport != nil {
		opts.Viewport = &playwright.Size{Width: p.Viewport.Width, Height: p.Viewport.Height}
	}
	if p.UserAgent != "" {
		opts.UserAgent = playwright.String(p.UserAgent)
	}
	if p.Locale != "" {
		opts.Locale = playwright.String(p.Locale)
	}
	return opts
}

type playwrightContext struct {
	context playwright.BrowserContext
	timeout time.Duration
}

func (c *playwrightContext) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := c.context.NewPage()
	if err != nil {
		return nil, err
	}
	page.SetDefaultTimeout(float64(c.timeout.Milliseconds()))
	return &playwrightPage{page: page}, nil
}

func (c *playwrightContext) Close() error {
	return c.context.Close()
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Goto(ctx context.Context, url string, opts GotoOptions) (*Response, error) {
	type gotoResult struct {
		resp playwright.Response
		err  error
	}

	// Goto блокирующий, поэтому ждем его в горутине, а отмену берем из ctx
	resCh := make(chan gotoResult, 1)
	go func() {
		resp, err := p.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: opts.WaitUntil.state(),
			Timeout:   playwright.Float(float64(opts.Timeout.Milliseconds())),
		})
		resCh <- gotoResult{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-resCh:
		if r.err != nil {
			if errors.Is(r.err, playwright.ErrTimeout) {
				return nil, fmt.Errorf("%w: %s после %v", ErrTimeout, opts.WaitUntil, opts.Timeout)
			}
			return nil, r.err
		}
		if r.resp == nil {
			return nil, nil
		}
		return &Response{URL: r.resp.URL(), Status: r.resp.Status()}, nil
	}
}

func (p *playwrightPage) Title() (string, error) {
	return p.page.Title()
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) BodyText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Locator("body").InnerText(playwright.LocatorInnerTextOptions{
		Timeout: playwright.Float(5000),
	})
}

func (p *playwrightPage) Screenshot(ctx context.Context, opts ScreenshotOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(opts.Path),
		FullPage: playwright.Bool(opts.FullPage),
		Timeout:  playwright.Float(float64(opts.Timeout.Milliseconds())),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: скриншот после %v", ErrTimeout, opts.Timeout)
	}
	return err
}

func (p *playwrightPage) Close() error {
	return p.page.Close()
}

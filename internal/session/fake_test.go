package session

import (
	"context"
	"os"
	"sync"

	"deviceRotate/internal/browser"
	"deviceRotate/internal/device"
)

type fakeLauncher struct {
	browser   *fakeBrowser
	launchErr error
	launches  int
}

func (l *fakeLauncher) Launch(ctx context.Context) (browser.Browser, error) {
	l.launches++
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	return l.browser, nil
}

type fakeBrowser struct {
	mu         sync.Mutex
	context    *fakeContext
	contextErr error
	profiles   []device.Profile
	closeErr   error
	closes     int
}

func (b *fakeBrowser) NewContext(ctx context.Context, profile device.Profile) (browser.Context, error) {
	b.profiles = append(b.profiles, profile)
	if b.contextErr != nil {
		return nil, b.contextErr
	}
	return b.context, nil
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closes++
	return b.closeErr
}

type fakeContext struct {
	mu       sync.Mutex
	page     *fakePage
	pageErr  error
	closeErr error
	closes   int
}

func (c *fakeContext) NewPage(ctx context.Context) (browser.Page, error) {
	if c.pageErr != nil {
		return nil, c.pageErr
	}
	return c.page, nil
}

func (c *fakeContext) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return c.closeErr
}

type fakePage struct {
	mu sync.Mutex

	gotoFn    func(call int, opts browser.GotoOptions) (*browser.Response, error)
	gotoCalls []browser.GotoOptions

	title    string
	titleErr error
	body     string
	bodyErr  error
	url      string

	shots   []browser.ScreenshotOptions
	shotErr error

	observer         browser.Observer
	observedBeforeGo bool

	closeErr error
	closes   int
}

func (p *fakePage) Observe(obs browser.Observer) {
	p.observer = obs
	p.observedBeforeGo = len(p.gotoCalls) == 0
}

func (p *fakePage) Goto(ctx context.Context, url string, opts browser.GotoOptions) (*browser.Response, error) {
	p.gotoCalls = append(p.gotoCalls, opts)
	if p.url == "" {
		p.url = url
	}
	if p.gotoFn == nil {
		return &browser.Response{URL: url, Status: 200}, nil
	}
	return p.gotoFn(len(p.gotoCalls)-1, opts)
}

func (p *fakePage) Title() (string, error) { return p.title, p.titleErr }

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) BodyText(ctx context.Context) (string, error) { return p.body, p.bodyErr }

// Screenshot пишет пустой файл, чтобы тесты могли проверить путь на диске.
func (p *fakePage) Screenshot(ctx context.Context, opts browser.ScreenshotOptions) error {
	p.mu.Lock()
	p.shots = append(p.shots, opts)
	p.mu.Unlock()
	if p.shotErr != nil {
		return p.shotErr
	}
	return os.WriteFile(opts.Path, nil, 0o644)
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	return p.closeErr
}

type fakeStack struct {
	launcher *fakeLauncher
	browser  *fakeBrowser
	context  *fakeContext
	page     *fakePage
}

func newFakeStack() *fakeStack {
	page := &fakePage{title: "OK", body: "Hello"}
	bc := &fakeContext{page: page}
	br := &fakeBrowser{context: bc}
	return &fakeStack{
		launcher: &fakeLauncher{browser: br},
		browser:  br,
		context:  bc,
		page:     page,
	}
}

// Package session выполняет один прогон страницы под одним профилем устройства:
// запуск браузера, навигация, проверка, ожидание SDK, скриншот и гарантированное закрытие.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"deviceRotate/internal/browser"
	"deviceRotate/internal/device"
)

// ErrReleased возвращается, если сессию закрыли во время запуска.
var ErrReleased = errors.New("сессия уже закрыта")

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeError
)

func (o Outcome) String() string {
	if o == OutcomeSuccess {
		return "success"
	}
	return "error"
}

type Config struct {
	OutputDir              string
	Navigation             NavigationPolicy
	SettleDelay            time.Duration
	ScreenshotTimeout      time.Duration
	ErrorScreenshotTimeout time.Duration
	FullPage               bool
	NotFoundMarkers        []string
}

func (c Config) withDefaults() Config {
	def := DefaultNavigationPolicy()
	if c.Navigation.Primary == "" {
		c.Navigation.Primary = def.Primary
	}
	if c.Navigation.Fallback == "" {
		c.Navigation.Fallback = def.Fallback
	}
	if c.Navigation.Timeout == 0 {
		c.Navigation.Timeout = def.Timeout
	}
	if c.ScreenshotTimeout == 0 {
		c.ScreenshotTimeout = 30 * time.Second
	}
	if c.ErrorScreenshotTimeout == 0 {
		c.ErrorScreenshotTimeout = 10 * time.Second
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	return c
}

// Deps общие для всех сессий зависимости.
type Deps struct {
	Launcher browser.Launcher
	Log      *zap.Logger
	Config   Config
}

type Result struct {
	Iteration      int
	Profile        device.Profile
	Outcome        Outcome
	Health         Health
	ScreenshotPath string
	Status         int
	Title          string
	FinalURL       string
	FellBack       bool
	Duration       time.Duration
	Err            error
}

type Session struct {
	launcher   browser.Launcher
	cfg        Config
	classifier Classifier
	log        *zap.Logger
	profile    device.Profile
	iteration  int
	targetURL  string

	mu       sync.Mutex
	browser  browser.Browser
	context  browser.Context
	page     browser.Page
	released bool
}

func New(deps Deps, profile device.Profile, iteration int, targetURL string) *Session {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	cfg := deps.Config.withDefaults()

	return &Session{
		launcher:   deps.Launcher,
		cfg:        cfg,
		classifier: NewClassifier(cfg.NotFoundMarkers),
		log:        log.With(zap.Int("iteration", iteration), zap.String("profile", profile.Name)),
		profile:    profile,
		iteration:  iteration,
		targetURL:  targetURL,
	}
}

// Run никогда не паникует из-за ошибок шагов и не возвращает ошибку:
// все сбои переводятся в Result с OutcomeError.
func (s *Session) Run(ctx context.Context) (res Result) {
	start := time.Now()
	res = Result{
		Iteration: s.iteration,
		Profile:   s.profile,
		Outcome:   OutcomeError,
		Health:    HealthUnknown,
	}

	defer func() { res.Duration = time.Since(start) }()
	defer func() { _ = s.Cleanup() }()

	page, err := s.acquire(ctx)
	if err != nil {
		res.Err = s.stepErr(StepAcquire, err)
		s.log.Error("Не удалось подготовить браузер", zap.Error(err))
		return res
	}

	if err := s.test(ctx, page, &res); err != nil {
		res.Err = err
		s.log.Error("Ошибка загрузки страницы / скриншота", zap.Error(err))
		if s.isReleased() {
			s.log.Debug("Сессия уже закрыта, скриншот ошибки пропущен")
			return res
		}
		if path, ok := s.errorScreenshot(page); ok {
			res.ScreenshotPath = path
		}
		return res
	}

	res.Outcome = OutcomeSuccess
	return res
}

func (s *Session) acquire(ctx context.Context) (browser.Page, error) {
	br, err := s.launcher.Launch(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.track(func() { s.browser = br }, br.Close); err != nil {
		return nil, err
	}

	bc, err := br.NewContext(ctx, s.profile)
	if err != nil {
		return nil, err
	}
	if err := s.track(func() { s.context = bc }, bc.Close); err != nil {
		return nil, err
	}

	page, err := bc.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.track(func() { s.page = page }, page.Close); err != nil {
		return nil, err
	}

	// подписки до навигации, иначе события загрузки потеряются
	page.Observe(newEventLogger(s.log))
	return page, nil
}

// statusFailed: любой 4xx/5xx кроме 404 и 410. Те считаются загруженной страницей NotFound.
func statusFailed(status int) bool {
	if status == http.StatusNotFound || status == http.StatusGone {
		return false
	}
	return status >= http.StatusBadRequest
}

func (s *Session) isReleased() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// track запоминает ресурс для Cleanup. Если Cleanup уже прошел, ресурс закрывается сразу.
func (s *Session) track(assign func(), closeFn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		if err := closeFn(); err != nil {
			s.log.Warn("Ошибка закрытия ресурса после отмены", zap.Error(err))
		}
		return ErrReleased
	}
	assign()
	return nil
}

func (s *Session) test(ctx context.Context, page browser.Page, res *Result) error {
	nav, err := Navigate(ctx, page, s.targetURL, s.cfg.Navigation)
	if err != nil {
		return s.stepErr(StepNavigate, err)
	}
	res.FellBack = nav.FellBack
	if nav.FellBack {
		s.log.Warn("Сеть не успокоилась, страница принята по DOMContentLoaded",
			zap.Duration("timeout", s.cfg.Navigation.Timeout))
	}
	if nav.Response != nil {
		res.Status = nav.Response.Status
		if statusFailed(res.Status) {
			return s.stepErr(StepNavigate, fmt.Errorf("ответ сервера %d", res.Status))
		}
	}

	res.Health = s.inspect(ctx, page, res.Status)

	s.log.Info("Страница загружена, ждем инициализации SDK", zap.Duration("settle", s.cfg.SettleDelay))
	if err := sleepCtx(ctx, s.cfg.SettleDelay); err != nil {
		return s.stepErr(StepSettle, err)
	}

	path := ScreenshotName(s.cfg.OutputDir, s.iteration, s.profile, res.Health)
	err = page.Screenshot(ctx, browser.ScreenshotOptions{
		Path:     path,
		FullPage: s.cfg.FullPage,
		Timeout:  s.cfg.ScreenshotTimeout,
	})
	if err != nil {
		s.log.Warn("Скриншот не сохранен", zap.String("path", path), zap.Error(s.stepErr(StepScreenshot, err)))
	} else {
		res.ScreenshotPath = path
		s.log.Info("Скриншот сохранен", zap.String("path", path))
	}

	res.Title, res.FinalURL = s.metadata(page)
	s.log.Info("Итог страницы",
		zap.String("title", res.Title),
		zap.String("url", res.FinalURL),
		zap.Int("status", res.Status),
		zap.Stringer("health", res.Health),
	)
	return nil
}

func (s *Session) inspect(ctx context.Context, page browser.Page, status int) Health {
	in := Inspection{Status: status}
	in.Title, in.TitleErr = page.Title()
	if in.TitleErr != nil {
		s.log.Warn("Не удалось прочитать заголовок", zap.Error(s.stepErr(StepInspect, in.TitleErr)))
	}
	in.Body, in.BodyErr = page.BodyText(ctx)
	if in.BodyErr != nil {
		s.log.Warn("Не удалось прочитать текст страницы", zap.Error(s.stepErr(StepInspect, in.BodyErr)))
	}
	return s.classifier.Classify(in)
}

func (s *Session) metadata(page browser.Page) (title, url string) {
	title, err := page.Title()
	if err != nil {
		s.log.Warn("Не удалось прочитать заголовок", zap.Error(s.stepErr(StepInspect, err)))
	}
	return title, page.URL()
}

// errorScreenshot снимает то, что успело отрисоваться. Не зависит от ctx прогона,
// чтобы сработать и после отмены.
func (s *Session) errorScreenshot(page browser.Page) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ErrorScreenshotTimeout)
	defer cancel()

	path := ErrorScreenshotName(s.cfg.OutputDir, s.iteration, s.profile)
	err := page.Screenshot(ctx, browser.ScreenshotOptions{
		Path:    path,
		Timeout: s.cfg.ErrorScreenshotTimeout,
	})
	if err != nil {
		s.log.Warn("Скриншот ошибки не сохранен", zap.String("path", path), zap.Error(err))
		return "", false
	}
	s.log.Info("Скриншот ошибки сохранен", zap.String("path", path))
	return path, true
}

// Cleanup закрывает страницу, контекст и браузер параллельно и ждет все три.
// Ошибки логируются по отдельности и объединяются. Повторный вызов ничего не делает.
func (s *Session) Cleanup() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	page, bc, br := s.page, s.context, s.browser
	s.page, s.context, s.browser = nil, nil, nil
	s.mu.Unlock()

	type closer struct {
		name string
		fn   func() error
	}
	var closers []closer
	if page != nil {
		closers = append(closers, closer{"page", page.Close})
	}
	if bc != nil {
		closers = append(closers, closer{"context", bc.Close})
	}
	if br != nil {
		closers = append(closers, closer{"browser", br.Close})
	}

	errs := make([]error, len(closers))
	var wg sync.WaitGroup
	for i, c := range closers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("%s: panic: %v", c.name, r)
				}
			}()
			if err := c.fn(); err != nil {
				errs[i] = fmt.Errorf("%s: %w", c.name, err)
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			s.log.Warn("Ошибка закрытия", zap.Error(err))
		}
	}

	if err := multierr.Combine(errs...); err != nil {
		return s.stepErr(StepCleanup, err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

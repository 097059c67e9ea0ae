// Package runner крутит цикл проверок: выбирает профиль по кругу, запускает сессию,
// обновляет счетчики и спит между итерациями с возможностью прерывания.
package runner

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"deviceRotate/internal/device"
	"deviceRotate/internal/session"
)

var (
	// ErrUsage неверные аргументы запуска, цикл не стартует.
	ErrUsage = errors.New("неверное использование")
	// ErrUnexpected ошибка вне обработки сессии, процесс должен завершиться с ошибкой.
	ErrUnexpected = errors.New("непредвиденная ошибка")
)

const (
	DefaultMaxIterations = 1000
	DefaultPollInterval  = time.Second
)

// Tester одна сессия проверки. session.Session удовлетворяет интерфейсу.
type Tester interface {
	Run(ctx context.Context) session.Result
	Cleanup() error
}

type Factory func(profile device.Profile, iteration int) Tester

// Sink получает результаты итераций (метрики). SessionFinished вызывается на каждую
// итерацию, ObserveResult только на попавшие в статистику.
type Sink interface {
	SessionStarted()
	SessionFinished()
	ObserveResult(res session.Result)
}

// Reporter печатает человекочитаемую строку итога итерации.
type Reporter func(res session.Result, snap Snapshot)

type Config struct {
	TargetURL     string
	Profiles      []device.Profile
	Interval      time.Duration
	MaxIterations int
	PollInterval  time.Duration
}

type Option func(*Runner)

func WithSink(s Sink) Option {
	return func(r *Runner) { r.sink = s }
}

func WithReporter(rep Reporter) Option {
	return func(r *Runner) { r.report = rep }
}

type Runner struct {
	cfg     Config
	factory Factory
	log     *zap.Logger
	stats   *Stats
	sink    Sink
	report  Reporter

	shutdown   atomic.Bool
	shutdownCh chan struct{}
	once       sync.Once

	mu     sync.Mutex
	active Tester
	cancel context.CancelFunc
	fatal  error
}

// ValidateTargetURL требует абсолютный http(s) URL с хостом.
func ValidateTargetURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: не указан URL страницы", ErrUsage)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: некорректный URL %q: %v", ErrUsage, raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: URL должен начинаться с http:// или https://, получено %q", ErrUsage, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: в URL %q нет хоста", ErrUsage, raw)
	}
	return nil
}

func New(cfg Config, factory Factory, log *zap.Logger, opts ...Option) (*Runner, error) {
	if err := ValidateTargetURL(cfg.TargetURL); err != nil {
		return nil, err
	}
	if len(cfg.Profiles) == 0 {
		return nil, fmt.Errorf("%w: пустой список профилей", ErrUsage)
	}
	if factory == nil {
		return nil, fmt.Errorf("%w: не задана фабрика сессий", ErrUsage)
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.PollInterval <= 0 || cfg.PollInterval > DefaultPollInterval {
		cfg.PollInterval = DefaultPollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}

	r := &Runner{
		cfg:        cfg,
		factory:    factory,
		log:        log,
		stats:      NewStats(),
		shutdownCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Config конфигурация после подстановки значений по умолчанию.
func (r *Runner) Config() Config {
	return r.cfg
}

// Stats безопасен для вызова из других горутин.
func (r *Runner) Stats() Snapshot {
	return r.stats.Snapshot()
}

func (r *Runner) ShutdownRequested() bool {
	return r.shutdown.Load()
}

// RequestShutdown останавливает цикл и закрывает активную сессию. Идемпотентен.
func (r *Runner) RequestShutdown() {
	r.once.Do(func() {
		r.shutdown.Store(true)
		close(r.shutdownCh)
		r.log.Info("Получен сигнал завершения, останавливаемся")

		r.mu.Lock()
		cancel, active := r.cancel, r.active
		r.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if active != nil {
			if err := active.Cleanup(); err != nil {
				r.log.Warn("Ошибка закрытия активной сессии", zap.Error(err))
			}
		}
	})
}

// Abort завершает прогон с ошибкой из фоновой задачи, не связанной с сессией.
func (r *Runner) Abort(err error) {
	r.mu.Lock()
	if r.fatal == nil {
		r.fatal = fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	r.mu.Unlock()
	r.log.Error("Фоновая задача упала, прогон прерывается", zap.Error(err))
	r.RequestShutdown()
}

// Run возвращает nil при штатной остановке (сигнал или лимит итераций)
// и ошибку с ErrUnexpected, если что-то вышло за пределы сессии.
func (r *Runner) Run(ctx context.Context) (Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	r.log.Info("Старт ротации устройств",
		zap.String("url", r.cfg.TargetURL),
		zap.Int("profiles", len(r.cfg.Profiles)),
		zap.Duration("interval", r.cfg.Interval),
		zap.Int("max_iterations", r.cfg.MaxIterations),
	)

	for i := 0; ; i++ {
		if r.ShutdownRequested() || ctx.Err() != nil {
			break
		}

		res, err := r.iterate(ctx, i)
		if err != nil {
			r.log.Error("Непредвиденная ошибка, завершение", zap.Error(err))
			return r.stats.Snapshot(), err
		}
		r.record(res)

		if r.ShutdownRequested() {
			break
		}
		if i+1 == r.cfg.MaxIterations {
			r.log.Info("Достигнут лимит итераций", zap.Int("max_iterations", r.cfg.MaxIterations))
			break
		}
		if !r.sleep(ctx, r.cfg.Interval) {
			break
		}
	}

	snap := r.stats.Snapshot()
	r.log.Info("Прогон завершен", summaryFields(snap)...)

	r.mu.Lock()
	fatal := r.fatal
	r.mu.Unlock()
	return snap, fatal
}

func (r *Runner) iterate(ctx context.Context, i int) (res session.Result, err error) {
	profile := device.Select(r.cfg.Profiles, i)
	r.log.Info("Итерация", zap.Int("iteration", i), zap.String("device", profile.Name))

	t := r.factory(profile, i)
	r.setActive(t)
	defer r.setActive(nil)

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: итерация %d (%s): %v", ErrUnexpected, i, profile.Name, p)
			if cerr := t.Cleanup(); cerr != nil {
				r.log.Warn("Ошибка закрытия сессии после паники", zap.Error(cerr))
			}
		}
	}()

	if r.sink != nil {
		r.sink.SessionStarted()
	}
	return t.Run(ctx), nil
}

func (r *Runner) setActive(t Tester) {
	r.mu.Lock()
	r.active = t
	r.mu.Unlock()
}

func (r *Runner) record(res session.Result) {
	if r.sink != nil {
		r.sink.SessionFinished()
	}

	// итерацию, оборванную остановкой, в статистику не пишем
	if r.ShutdownRequested() && res.Outcome == session.OutcomeError {
		r.log.Info("Итерация прервана остановкой, в статистику не входит", zap.Int("iteration", res.Iteration))
	} else {
		r.stats.Record(res)
		if r.sink != nil {
			r.sink.ObserveResult(res)
		}
	}
	snap := r.stats.Snapshot()

	fields := []zap.Field{
		zap.Int("iteration", res.Iteration),
		zap.String("device", res.Profile.Name),
		zap.Stringer("outcome", res.Outcome),
		zap.Stringer("health", res.Health),
		zap.Duration("duration", res.Duration),
	}
	if res.ScreenshotPath != "" {
		fields = append(fields, zap.String("screenshot", res.ScreenshotPath))
	}
	if res.Err != nil {
		r.log.Warn("Итерация завершилась с ошибкой", append(fields, zap.Error(res.Err))...)
	} else {
		r.log.Info("Итерация завершена", fields...)
	}

	if res.Health == session.HealthNotFound {
		r.log.Warn("🚨 Страница отдает 404",
			zap.String("target_url", r.cfg.TargetURL),
			zap.String("final_url", res.FinalURL),
			zap.String("device", res.Profile.Name),
			zap.Int("status", res.Status),
		)
	}

	r.log.Info("Сводка", summaryFields(snap)...)
	if r.report != nil {
		r.report(res, snap)
	}
}

// sleep ждет d или остановки. Флаг дополнительно проверяется каждые PollInterval.
func (r *Runner) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return !r.ShutdownRequested() && ctx.Err() == nil
	}
	r.log.Info("Пауза перед следующим устройством", zap.Duration("interval", d))

	deadline := time.NewTimer(d)
	defer deadline.Stop()
	poll := time.NewTicker(r.cfg.PollInterval)
	defer poll.Stop()

	for {
		select {
		case <-deadline.C:
			return true
		case <-r.shutdownCh:
			return false
		case <-ctx.Done():
			return false
		case <-poll.C:
			if r.ShutdownRequested() {
				return false
			}
		}
	}
}

func summaryFields(s Snapshot) []zap.Field {
	return []zap.Field{
		zap.Int("total", s.Total),
		zap.Int("success", s.Success),
		zap.Int("errors", s.Errors),
		zap.Int("not_found", s.NotFound),
		zap.String("success_rate", fmt.Sprintf("%.1f%%", s.SuccessRate)),
		zap.Int64("p50_ms", s.P50Ms),
		zap.Int64("p95_ms", s.P95Ms),
	}
}

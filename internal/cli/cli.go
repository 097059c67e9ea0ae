// Package cli собирает команду run: конфиг, браузер, цикл проверок, сигналы и статус-сервер.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"deviceRotate/internal/browser"
	"deviceRotate/internal/cli/ui"
	"deviceRotate/internal/config"
	"deviceRotate/internal/device"
	"deviceRotate/internal/logger"
	"deviceRotate/internal/metrics"
	"deviceRotate/internal/runner"
	"deviceRotate/internal/server"
	"deviceRotate/internal/session"
)

// Engine драйвер браузера на весь процесс.
type Engine interface {
	browser.Launcher
	Start() error
	Stop() error
}

type CLI struct {
	cfg       *config.Cfg
	log       *logger.Zap
	out       io.Writer
	newEngine func(browser.Config) Engine
	signals   chan os.Signal
}

type Option func(*CLI)

// WithOutput меняет поток для человекочитаемого вывода.
func WithOutput(w io.Writer) Option {
	return func(c *CLI) { c.out = w }
}

// WithEngine подменяет драйвер браузера.
func WithEngine(fn func(browser.Config) Engine) Option {
	return func(c *CLI) { c.newEngine = fn }
}

// WithSignals подменяет канал сигналов ОС.
func WithSignals(ch chan os.Signal) Option {
	return func(c *CLI) { c.signals = ch }
}

func New(cfg *config.Cfg, log *logger.Zap, opts ...Option) *CLI {
	c := &CLI{
		cfg: cfg,
		log: log,
		out: os.Stdout,
		newEngine: func(bc browser.Config) Engine {
			return browser.New(bc)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute разбирает аргументы и запускает команду. Ненулевая ошибка означает exit 1.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(c.out)
	root.SetErr(c.out)
	return root.ExecuteContext(ctx)
}

func (c *CLI) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "deviceRotate",
		Short:         "Проверка страницы на ротации эмулируемых устройств",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(c.runCmd())
	return root
}

func (c *CLI) runCmd() *cobra.Command {
	cfg := c.cfg
	cmd := &cobra.Command{
		Use:   "run <target-url>",
		Short: "Запустить цикл скриншотов по устройствам",
		Example: "  deviceRotate run https://example.com\n" +
			"  deviceRotate run https://example.com --interval 30s --max-iterations 10",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: ожидается ровно один аргумент <target-url>\nИспользование: %s", runner.ErrUsage, cmd.UseLine())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd.Context(), args[0])
		},
	}

	f := cmd.Flags()
	f.DurationVar(&cfg.Run.Interval, "interval", cfg.Run.Interval, "пауза между итерациями")
	f.IntVar(&cfg.Run.MaxIterations, "max-iterations", cfg.Run.MaxIterations, "предел итераций")
	f.DurationVar(&cfg.Run.SettleDelay, "settle", cfg.Run.SettleDelay, "ожидание после загрузки перед скриншотом")
	f.StringVar(&cfg.Screenshot.Dir, "output-dir", cfg.Screenshot.Dir, "папка для скриншотов")
	f.BoolVar(&cfg.Browser.Headless, "headless", cfg.Browser.Headless, "запуск браузера без окна")
	f.BoolVar(&cfg.Screenshot.FullPage, "full-page", cfg.Screenshot.FullPage, "скриншот всей страницы")
	f.StringVar(&cfg.Status.Addr, "status-addr", cfg.Status.Addr, "адрес статус-сервера, пусто - выключен")
	return cmd
}

func (c *CLI) run(ctx context.Context, targetURL string) error {
	if err := runner.ValidateTargetURL(targetURL); err != nil {
		return err
	}
	cfg := c.cfg

	runID := uuid.NewString()
	log := c.log.With(zap.String("run_id", runID))

	if err := session.EnsureOutputDir(cfg.Screenshot.Dir); err != nil {
		return fmt.Errorf("папка скриншотов %q: %w", cfg.Screenshot.Dir, err)
	}

	engine := c.newEngine(browser.Config{
		Engine:       cfg.Browser.Engine,
		Headless:     cfg.Browser.Headless,
		Install:      cfg.Browser.Install,
		BrowsersPath: cfg.Browser.BrowsersPath,
		Display:      cfg.Browser.Display,
		Args:         cfg.Browser.Args,
	})
	if err := engine.Start(); err != nil {
		return fmt.Errorf("запуск playwright: %w", err)
	}
	defer func() {
		if err := engine.Stop(); err != nil {
			log.Warn("Ошибка остановки playwright", zap.Error(err))
		}
	}()

	deps := session.Deps{
		Launcher: engine,
		Log:      log,
		Config: session.Config{
			OutputDir: cfg.Screenshot.Dir,
			Navigation: session.NavigationPolicy{
				Primary:  browser.ParseWaitUntil(cfg.Run.WaitUntil),
				Fallback: browser.WaitDOMContentLoaded,
				Timeout:  cfg.Run.NavigateTimeout,
			},
			SettleDelay:            cfg.Run.SettleDelay,
			ScreenshotTimeout:      cfg.Screenshot.Timeout,
			ErrorScreenshotTimeout: cfg.Screenshot.ErrorTimeout,
			FullPage:               cfg.Screenshot.FullPage,
			NotFoundMarkers:        cfg.Run.NotFoundMarkers,
		},
	}
	factory := func(p device.Profile, i int) runner.Tester {
		return session.New(deps, p, i, targetURL)
	}

	reg := prometheus.NewRegistry()
	profiles := device.Rotation()

	r, err := runner.New(runner.Config{
		TargetURL:     targetURL,
		Profiles:      profiles,
		Interval:      cfg.Run.Interval,
		MaxIterations: cfg.Run.MaxIterations,
	}, factory, log,
		runner.WithSink(metrics.New(reg)),
		runner.WithReporter(c.report(targetURL)),
	)
	if err != nil {
		return err
	}

	if cfg.Status.Addr != "" {
		srv := server.New(log, r, reg, runID)
		if err := srv.Listen(cfg.Status.Addr); err != nil {
			return fmt.Errorf("статус-сервер %s: %w", cfg.Status.Addr, err)
		}
		go func() {
			if err := srv.Serve(); err != nil {
				r.Abort(fmt.Errorf("статус-сервер: %w", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("Ошибка остановки статус-сервера", zap.Error(err))
			}
		}()
	}

	stopSignals := c.watchSignals(log, r)
	defer stopSignals()

	ui.PrintWelcome(c.out, targetURL, profiles, r.Config().Interval, r.Config().MaxIterations)

	snap, err := r.Run(ctx)
	fmt.Fprintln(c.out, ui.FinalSummary(snap))
	if err != nil {
		return err
	}
	ui.PrintGoodbye(c.out)
	return nil
}

func (c *CLI) report(targetURL string) runner.Reporter {
	return func(res session.Result, snap runner.Snapshot) {
		fmt.Fprintln(c.out, ui.SummaryLine(res, snap))
		if res.Health == session.HealthNotFound {
			fmt.Fprintln(c.out, ui.NotFoundAlert(targetURL, res))
		}
	}
}

// watchSignals переводит SIGINT и SIGTERM в RequestShutdown.
func (c *CLI) watchSignals(log *zap.Logger, r *runner.Runner) (stop func()) {
	ch := c.signals
	if ch == nil {
		ch = make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	}
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-ch:
			log.Info("Получен сигнал", zap.String("signal", sig.String()))
			r.RequestShutdown()
		case <-done:
		}
	}()

	return func() {
		if c.signals == nil {
			signal.Stop(ch)
		}
		close(done)
	}
}

// ExitCode 0 для штатного завершения, 1 для всего остального.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

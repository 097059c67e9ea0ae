package cli

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deviceRotate/internal/browser"
	"deviceRotate/internal/config"
	"deviceRotate/internal/logger"
	"deviceRotate/internal/runner"
)

type fakeEngine struct {
	startErr error
	started  atomic.Bool
	stopped  atomic.Bool
	launches atomic.Int32
	cfg      browser.Config
}

func (e *fakeEngine) Start() error {
	if e.startErr != nil {
		return e.startErr
	}
	e.started.Store(true)
	return nil
}

func (e *fakeEngine) Stop() error {
	e.stopped.Store(true)
	return nil
}

func (e *fakeEngine) Launch(context.Context) (browser.Browser, error) {
	e.launches.Add(1)
	return nil, errors.New("browser executable not found")
}

type harness struct {
	cli     *CLI
	engine  *fakeEngine
	created atomic.Bool
	out     *bytes.Buffer
	signals chan os.Signal
	cfg     *config.Cfg
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		engine:  &fakeEngine{},
		out:     &bytes.Buffer{},
		signals: make(chan os.Signal, 1),
		cfg: &config.Cfg{
			Browser: config.Browser{Engine: "chromium", Headless: true},
			Run: config.Run{
				Interval:        0,
				MaxIterations:   1,
				NavigateTimeout: time.Second,
			},
			Screenshot: config.Screenshot{Dir: filepath.Join(t.TempDir(), "shots")},
		},
	}
	return h
}

func (h *harness) build() *CLI {
	return New(h.cfg, logger.Nop(),
		WithOutput(h.out),
		WithSignals(h.signals),
		WithEngine(func(bc browser.Config) Engine {
			h.created.Store(true)
			h.engine.cfg = bc
			return h.engine
		}),
	)
}

func TestRunRequiresURL(t *testing.T) {
	h := newHarness(t)

	err := h.build().Execute(context.Background(), []string{"run"})
	require.ErrorIs(t, err, runner.ErrUsage)
	assert.Contains(t, err.Error(), "run <target-url>")
	assert.Equal(t, 1, ExitCode(err))
	assert.False(t, h.created.Load(), "browser must not be touched on usage errors")
}

func TestRunRejectsBadScheme(t *testing.T) {
	h := newHarness(t)

	err := h.build().Execute(context.Background(), []string{"run", "ftp://example.com"})
	require.ErrorIs(t, err, runner.ErrUsage)
	assert.False(t, h.created.Load())
	_, statErr := os.Stat(h.cfg.Screenshot.Dir)
	assert.True(t, os.IsNotExist(statErr), "output dir is not created on usage errors")
}

func TestRunStartupFailure(t *testing.T) {
	h := newHarness(t)
	h.engine.startErr = errors.New("driver missing")

	err := h.build().Execute(context.Background(), []string{"run", "https://example.test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver missing")
	assert.Equal(t, 1, ExitCode(err))
	assert.Zero(t, h.engine.launches.Load())
}

func TestRunSessionErrorsAreNotFatal(t *testing.T) {
	h := newHarness(t)

	err := h.build().Execute(context.Background(), []string{
		"run", "https://example.test",
		"--max-iterations", "2",
		"--interval", "1ms",
		"--headless=false",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, ExitCode(err))

	assert.EqualValues(t, 2, h.engine.launches.Load())
	assert.True(t, h.engine.stopped.Load())
	assert.False(t, h.engine.cfg.Headless, "flag overrides config")
	assert.DirExists(t, h.cfg.Screenshot.Dir)

	out := h.out.String()
	assert.Contains(t, out, "https://example.test")
	assert.Contains(t, out, "ошибок 2")
	assert.Contains(t, out, "Итого")
}

func TestRunStopsOnSignal(t *testing.T) {
	h := newHarness(t)
	h.cfg.Run.Interval = time.Hour
	h.cfg.Run.MaxIterations = 0

	done := make(chan error, 1)
	go func() {
		done <- h.build().Execute(context.Background(), []string{"run", "https://example.test"})
	}()

	require.Eventually(t, func() bool { return h.engine.launches.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	h.signals <- syscall.SIGTERM

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("signal did not stop the run")
	}
	assert.EqualValues(t, 1, h.engine.launches.Load())
	assert.True(t, h.engine.stopped.Load())
}

func TestRunStatusAddrInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	h := newHarness(t)
	h.cfg.Status.Addr = ln.Addr().String()

	err = h.build().Execute(context.Background(), []string{"run", "https://example.test"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "статус-сервер")
	assert.Zero(t, h.engine.launches.Load())
	assert.True(t, h.engine.stopped.Load())
}

func TestRunWithStatusServer(t *testing.T) {
	h := newHarness(t)
	h.cfg.Status.Addr = "127.0.0.1:0"

	err := h.build().Execute(context.Background(), []string{"run", "https://example.test"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, h.engine.launches.Load())
}

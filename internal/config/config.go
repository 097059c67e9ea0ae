package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Cfg struct {
	Logger     Logger
	Browser    Browser
	Run        Run
	Screenshot Screenshot
	Status     Status
}

type Logger struct {
	Env   string
	Level string
}

type Browser struct {
	Engine       string
	Display      string
	Headless     bool
	Install      bool
	BrowsersPath string
	Args         []string
}

type Run struct {
	Interval        time.Duration
	MaxIterations   int
	SettleDelay     time.Duration
	NavigateTimeout time.Duration
	WaitUntil       string
	NotFoundMarkers []string
}

type Screenshot struct {
	Dir          string
	FullPage     bool
	Timeout      time.Duration
	ErrorTimeout time.Duration
}

type Status struct {
	Addr string
}

// DefaultNotFoundMarkers сравниваются без учета регистра с заголовком и текстом страницы.
var DefaultNotFoundMarkers = []string{
	"404",
	"not found",
	"page not found",
	"page could not be found",
	"страница не найдена",
}

func Load() (*Cfg, error) {
	_ = godotenv.Load()

	cfg := &Cfg{
		Logger: Logger{
			Env:   env("ENV", "dev"),
			Level: env("LOG_LEVEL", "info"),
		},
		Browser: Browser{
			Engine:       strings.ToLower(env("PW_BROWSER", "chromium")),
			Display:      os.Getenv("DISPLAY"),
			Headless:     envBoolDefault("PW_HEADLESS", true),
			Install:      envBool("PW_INSTALL"),
			BrowsersPath: env("PLAYWRIGHT_BROWSERS_PATH", ""),
			Args:         envList("PW_ARGS", []string{"--disable-dev-shm-usage"}),
		},
		Run: Run{
			Interval:        envDuration("RUN_INTERVAL", 60*time.Second),
			MaxIterations:   envInt("RUN_MAX_ITERATIONS", 1000),
			SettleDelay:     envDuration("SETTLE_DELAY", 20*time.Second),
			NavigateTimeout: envDuration("NAVIGATE_TIMEOUT", 60*time.Second),
			WaitUntil:       env("NAVIGATE_WAIT_UNTIL", "networkidle"),
			NotFoundMarkers: envList("NOT_FOUND_MARKERS", DefaultNotFoundMarkers),
		},
		Screenshot: Screenshot{
			Dir:          env("SCREENSHOT_DIR", "screenshots"),
			FullPage:     envBoolDefault("SCREENSHOT_FULL_PAGE", true),
			Timeout:      envDuration("SCREENSHOT_TIMEOUT", 30*time.Second),
			ErrorTimeout: envDuration("ERROR_SCREENSHOT_TIMEOUT", 10*time.Second),
		},
		Status: Status{
			Addr: env("STATUS_ADDR", ""),
		},
	}

	return cfg, nil
}

func env(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "true" || v == "1" || v == "yes"
}

func envBoolDefault(key string, defaultValue bool) bool {
	v := strings.ToLower(os.Getenv(key))
	switch v {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}

// envDuration принимает как "90s", так и голое число миллисекунд.
func envDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

func envList(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), defaultValue...)
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}

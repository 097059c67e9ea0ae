// Package device описывает профили эмуляции устройств и их ротацию.
package device

import (
	"regexp"
	"strings"
)

// Viewport размер окна в CSS пикселях.
type Viewport struct {
	Width  int
	Height int
}

// Profile набор параметров эмуляции, передаваемых в контекст браузера.
// Пустые UserAgent/Locale и nil Viewport означают "оставить значение браузера".
type Profile struct {
	Name              string
	Viewport          *Viewport
	UserAgent         string
	DeviceScaleFactor float64
	IsMobile          bool
	HasTouch          bool
	Locale            string
}

// New применяет дефолты один раз, чтобы потребители не проверяли поля повторно.
func New(p Profile) Profile {
	if p.DeviceScaleFactor <= 0 {
		p.DeviceScaleFactor = 1
	}
	if p.Viewport != nil {
		v := *p.Viewport
		p.Viewport = &v
	}
	return p
}

var rotation = []Profile{
	New(Profile{
		Name:              "iPhone 15 Pro",
		Viewport:          &Viewport{Width: 393, Height: 659},
		UserAgent:         "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
		DeviceScaleFactor: 3,
		IsMobile:          true,
		HasTouch:          true,
	}),
	New(Profile{
		Name:              "Pixel 6",
		Viewport:          &Viewport{Width: 412, Height: 839},
		UserAgent:         "Mozilla/5.0 (Linux; Android 12; Pixel 6) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
		DeviceScaleFactor: 2.625,
		IsMobile:          true,
		HasTouch:          true,
	}),
	New(Profile{
		Name:              "iPad (gen 7)",
		Viewport:          &Viewport{Width: 810, Height: 1080},
		UserAgent:         "Mozilla/5.0 (iPad; CPU OS 12_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
		DeviceScaleFactor: 2,
		IsMobile:          true,
		HasTouch:          true,
	}),
	New(Profile{
		Name:      "Desktop Chrome",
		Viewport:  &Viewport{Width: 1366, Height: 768},
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Locale:    "en-US",
	}),
	New(Profile{
		Name:              "Galaxy S23",
		Viewport:          &Viewport{Width: 360, Height: 780},
		UserAgent:         "Mozilla/5.0 (Linux; Android 13; SM-S911B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
		DeviceScaleFactor: 3,
		IsMobile:          true,
		HasTouch:          true,
	}),
}

// Rotation возвращает копию фиксированного списка профилей.
func Rotation() []Profile {
	out := make([]Profile, len(rotation))
	for i, p := range rotation {
		out[i] = New(p)
	}
	return out
}

// Select выбирает профиль для итерации: profiles[iteration mod len].
func Select(profiles []Profile, iteration int) Profile {
	n := len(profiles)
	idx := iteration % n
	if idx < 0 {
		idx += n
	}
	return profiles[idx]
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SanitizeName делает имя профиля пригодным для имени файла: "iPad (gen 7)" -> "iPad-gen-7".
func SanitizeName(name string) string {
	s := strings.Trim(unsafeChars.ReplaceAllString(name, "-"), "-")
	if s == "" {
		return "profile"
	}
	return s
}

package session

import (
	"net/http"
	"strings"
)

// Health результат проверки страницы на "не найдено".
type Health int

const (
	HealthUnknown Health = iota
	HealthOK
	HealthNotFound
)

func (h Health) String() string {
	switch h {
	case HealthOK:
		return "ok"
	case HealthNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Inspection сырые данные страницы после навигации.
// Status == 0 означает, что ответа не было.
type Inspection struct {
	Status   int
	Title    string
	TitleErr error
	Body     string
	BodyErr  error
}

// Classifier ищет маркеры 404 в заголовке и тексте страницы без учета регистра.
type Classifier struct {
	markers []string
}

func NewClassifier(markers []string) Classifier {
	c := Classifier{markers: make([]string, 0, len(markers))}
	for _, m := range markers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			c.markers = append(c.markers, m)
		}
	}
	return c
}

func (c Classifier) Classify(in Inspection) Health {
	if in.Status == http.StatusNotFound || in.Status == http.StatusGone {
		return HealthNotFound
	}

	if in.TitleErr != nil && in.BodyErr != nil {
		return HealthUnknown
	}

	if in.TitleErr == nil && c.matches(in.Title) {
		return HealthNotFound
	}
	if in.BodyErr == nil && c.matches(in.Body) {
		return HealthNotFound
	}

	return HealthOK
}

func (c Classifier) matches(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, m := range c.markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

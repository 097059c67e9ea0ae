package runner

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"deviceRotate/internal/session"
)

// Stats счетчики прогона на время жизни процесса. Пишет только цикл Runner,
// мьютекс нужен для чтения из статус-сервера.
type Stats struct {
	mu       sync.Mutex
	success  int
	errors   int
	notFound int
	total    int
	// длительность сессий в миллисекундах, от 1ms до 1h
	durations *hdrhistogram.Histogram
}

// Snapshot копия счетчиков для логов и JSON.
type Snapshot struct {
	Total       int     `json:"total_iterations"`
	Success     int     `json:"success"`
	Errors      int     `json:"errors"`
	NotFound    int     `json:"not_found"`
	SuccessRate float64 `json:"success_rate"`
	P50Ms       int64   `json:"session_p50_ms"`
	P95Ms       int64   `json:"session_p95_ms"`
	MaxMs       int64   `json:"session_max_ms"`
}

func NewStats() *Stats {
	return &Stats{
		durations: hdrhistogram.New(1, int64(time.Hour/time.Millisecond), 3),
	}
}

func (s *Stats) Record(res session.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if res.Outcome == session.OutcomeSuccess {
		s.success++
	} else {
		s.errors++
	}
	if res.Health == session.HealthNotFound {
		s.notFound++
	}

	ms := res.Duration.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	_ = s.durations.RecordValue(ms)
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Total:    s.total,
		Success:  s.success,
		Errors:   s.errors,
		NotFound: s.notFound,
	}
	if s.total > 0 {
		snap.SuccessRate = float64(s.success) / float64(s.total) * 100
		snap.P50Ms = s.durations.ValueAtQuantile(50)
		snap.P95Ms = s.durations.ValueAtQuantile(95)
		snap.MaxMs = s.durations.Max()
	}
	return snap
}

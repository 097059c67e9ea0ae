package session

import (
	"go.uber.org/zap"
)

// eventLogger пишет события страницы в лог сессии. Поле profile уже есть в логгере сессии.
type eventLogger struct {
	log *zap.Logger
}

func newEventLogger(log *zap.Logger) *eventLogger {
	return &eventLogger{log: log}
}

func (e *eventLogger) OnConsole(level, text string) {
	switch level {
	case "error":
		e.log.Error("PAGE LOG", zap.String("level", level), zap.String("text", text))
	case "warning", "warn":
		e.log.Warn("PAGE LOG", zap.String("level", level), zap.String("text", text))
	default:
		e.log.Debug("PAGE LOG", zap.String("level", level), zap.String("text", text))
	}
}

func (e *eventLogger) OnPageError(err error) {
	e.log.Error("Необработанная ошибка на странице", zap.Error(err))
}

func (e *eventLogger) OnRequestFailed(url, reason string) {
	e.log.Warn("Запрос не выполнен", zap.String("url", url), zap.String("reason", reason))
}

func (e *eventLogger) OnResponse(url string, status int) {
	if status < 400 {
		return
	}
	e.log.Warn("Ответ с ошибкой", zap.String("url", url), zap.Int("status", status))
}

package main

import (
	"context"
	"fmt"
	"os"

	"deviceRotate/internal/cli"
	"deviceRotate/internal/config"
	"deviceRotate/internal/logger"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка конфигурации:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logger.Env, cfg.Logger.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка логгера:", err)
		os.Exit(1)
	}

	err = cli.New(cfg, log).Execute(context.Background(), os.Args[1:])
	if err != nil {
		log.Error("Завершение с ошибкой", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
	}
	_ = log.Sync()
	os.Exit(cli.ExitCode(err))
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"climas_backend/internal/email"
	"climas_backend/internal/notification"
	"climas_backend/internal/scheduler"
	"climas_backend/internal/whatsapp"
	"climas_backend/platform/config"
	"climas_backend/platform/logger"
	"climas_backend/platform/phone"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	phones := phone.NewNormalizer(cfg.GetDefaultPhoneRegion())

	deliverer := notification.New(email.NewSender(cfg), log)
	if wa := whatsapp.NewClient(cfg, phones, log); wa != nil {
		deliverer.SetWhatsAppSender(wa)
	}

	worker, err := scheduler.NewWorker(cfg, deliverer, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(gctx) })

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
		os.Exit(1)
	}
}

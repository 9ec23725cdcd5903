package scheduler

import (
	"context"
	"errors"
	"fmt"

	"climas_backend/platform/config"
	"climas_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// ErrUndeliverable marks a delivery that can never succeed. Tasks failing with
// it are archived without further retries.
var ErrUndeliverable = errors.New("undeliverable")

// Deliverer performs a quotation delivery over its channel.
type Deliverer interface {
	DeliverQuotation(ctx context.Context, payload QuotationDeliveryPayload) error
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	deliverer Deliverer
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, deliverer Deliverer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server:    server,
		mux:       asynq.NewServeMux(),
		deliverer: deliverer,
		log:       log,
	}
	w.mux.HandleFunc(TaskQuotationDelivery, w.handleQuotationDelivery)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
		return err
	}
	return nil
}

func (w *Worker) handleQuotationDelivery(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseQuotationDeliveryPayload(task)
	if err != nil {
		// A malformed payload never succeeds; do not retry it.
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	if err := w.deliverer.DeliverQuotation(ctx, payload); err != nil {
		if errors.Is(err, ErrUndeliverable) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}
	return nil
}

package worker

import (
	"context"
	"kanban/internal/logger"
	"kanban/internal/models/task"
	"time"

	"go.uber.org/zap"
)

// Source - то, что умеет перечитать список задач мимо кэша (remote.Store)
type Source interface {
	Refresh(ctx context.Context) ([]*task.Task, error)
}

// Refresher периодически сверяет закэшированный список задач с API
type Refresher struct {
	source   Source
	interval time.Duration
	onUpdate func([]*task.Task)
}

func NewRefresher(source Source, interval *time.Duration, onUpdate func([]*task.Task)) *Refresher {
	var intervalToSet time.Duration
	if interval == nil || *interval <= 0 {
		intervalToSet = 30 * time.Second
	} else {
		intervalToSet = *interval
	}

	return &Refresher{
		source:   source,
		interval: intervalToSet,
		onUpdate: onUpdate,
	}
}

func (w *Refresher) Interval() time.Duration {
	return w.interval
}

func (w *Refresher) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Обновление списка останавливается")
			return
		}
	}
}

// Check - одна сверка. Ошибки только логируются.
func (w *Refresher) Check(ctx context.Context) bool {
	start := time.Now()

	tasks, err := w.source.Refresh(ctx)
	if err != nil {
		logger.Warn("Worker: Ошибка обновления списка задач", zap.Error(err))
		return false
	}

	if w.onUpdate != nil {
		w.onUpdate(tasks)
	}

	logger.Info("Worker: Список задач обновлён",
		zap.Int("tasks", len(tasks)),
		zap.Duration("ms", time.Since(start)))
	return true
}

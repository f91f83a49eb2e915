package scheduler

import (
	"context"
	"time"

	"medical_advisor_backend/internal/notification"
	plansservice "medical_advisor_backend/internal/plans/service"
	"medical_advisor_backend/platform/config"
	"medical_advisor_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker consumes queued tasks: plan materialization runs requested over HTTP
// and the daily reminder sweep.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	plans    *plansservice.Service
	notifier *notification.Module
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, plans *plansservice.Service, notifier *notification.Module, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	concurrency := cfg.GetAsynqConcurrency()
	if concurrency <= 0 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{queue: 1},
	})

	w := &Worker{
		server:   server,
		mux:      asynq.NewServeMux(),
		plans:    plans,
		notifier: notifier,
		log:      log,
	}
	w.mux.HandleFunc(TaskPlanMaterialize, w.handlePlanMaterialize)
	w.mux.HandleFunc(TaskDailyReminders, w.handleDailyReminders)
	return w, nil
}

// Run serves the queue until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		w.log.Info("stopping task worker")
		w.server.Shutdown()
	}()

	w.log.Info("task worker started")
	return w.server.Run(w.mux)
}

func (w *Worker) handlePlanMaterialize(ctx context.Context, task *asynq.Task) error {
	payload, err := ParsePlanMaterializePayload(task)
	if err != nil {
		w.log.Error("malformed materialize payload", "error", err)
		return err
	}

	result, err := w.plans.MaterializePlanByID(ctx, payload.PlanID)
	if err != nil {
		w.log.Error("queued materialization failed", "plan_id", payload.PlanID, "error", err)
		return err
	}

	w.log.Info("queued materialization complete",
		"plan_id", payload.PlanID,
		"created", result.CreatedCount,
		"skipped", result.SkippedCount,
	)
	return nil
}

func (w *Worker) handleDailyReminders(ctx context.Context, _ *asynq.Task) error {
	_, err := w.notifier.RunDailyReminders(ctx)
	return err
}

// ReminderJob fires the daily reminder sweep at a fixed UTC hour. It runs in
// the worker process directly instead of going through the queue so a single
// deployment without Redis-backed cron still gets reminders.
type ReminderJob struct {
	notifier *notification.Module
	hourUTC  int
	log      *logger.Logger
}

func NewReminderJob(cfg config.SchedulerConfig, notifier *notification.Module, log *logger.Logger) *ReminderJob {
	hour := cfg.GetReminderHourUTC()
	if hour < 0 || hour > 23 {
		hour = 6
	}
	return &ReminderJob{notifier: notifier, hourUTC: hour, log: log}
}

// Run sleeps until the next configured hour, runs the sweep, and repeats
// until ctx is cancelled.
func (j *ReminderJob) Run(ctx context.Context) {
	j.log.Info("reminder job started", "hour_utc", j.hourUTC)
	for {
		timer := time.NewTimer(time.Until(j.nextRun(time.Now().UTC())))
		select {
		case <-ctx.Done():
			timer.Stop()
			j.log.Info("reminder job stopped")
			return
		case <-timer.C:
		}

		result, err := j.notifier.RunDailyReminders(ctx)
		if err != nil {
			j.log.Error("reminder sweep failed", "error", err)
			continue
		}
		j.log.Info("reminder sweep finished",
			"date", result.Date,
			"due", result.DueTasks,
			"notified", result.Notified,
		)
	}
}

func (j *ReminderJob) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), j.hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

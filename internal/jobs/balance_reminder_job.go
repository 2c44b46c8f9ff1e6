package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BalanceReminderJobName is the scheduler name of the balance reminder job.
const BalanceReminderJobName = "balance_reminders"

// BalanceReminderService sends reminders for confirmed bookings whose balance is due.
type BalanceReminderService interface {
	SendBalanceReminders(ctx context.Context, on time.Time) (int, error)
}

// BalanceReminderJob publishes balance-due events once a day.
type BalanceReminderJob struct {
	service BalanceReminderService
	logger  *zap.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewBalanceReminderJob creates the job. timeout bounds a single run.
func NewBalanceReminderJob(service BalanceReminderService, logger *zap.Logger, timeout time.Duration) *BalanceReminderJob {
	return &BalanceReminderJob{
		service: service,
		logger:  logger,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one pass. It is called by the scheduler.
func (j *BalanceReminderJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	sent, err := j.service.SendBalanceReminders(ctx, j.now())
	if err != nil {
		j.logger.Error("balance reminder job failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}
	j.logger.Info("balance reminder job finished",
		zap.Int("reminders_sent", sent),
		zap.Duration("duration", time.Since(start)))
}

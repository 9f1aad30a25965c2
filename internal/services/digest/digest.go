// Package digest sends the periodic summary notifications: the evening progress
// report, the upcoming-tasks heads-up and the morning motivation line.
package digest

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/auraplan/domain"
	"github.com/fastygo/auraplan/internal/clock"
	"github.com/fastygo/auraplan/internal/infrastructure/notify"
)

// Tasks is the read side the jobs need.
type Tasks interface {
	List(ctx context.Context) ([]domain.Task, error)
	DueWithin(ctx context.Context, now time.Time, window time.Duration) ([]domain.Task, error)
}

type Config struct {
	Location           *time.Location
	DailySchedule      string
	UpcomingSchedule   string
	UpcomingWindow     time.Duration
	MotivationSchedule string
}

var motivations = []string{
	"🌟 You're doing great! Keep up the excellent work!",
	"📚 Every small step counts towards your goals!",
	"💡 Focus on progress, not perfection!",
	"🎯 You're closer to your goals than you think!",
	"🔥 Stay consistent, success is on the way!",
	"⭐ Believe in yourself - you've got this!",
	"🌈 Turn your dreams into plans, and plans into reality!",
	"🚀 Your future self will thank you for today's efforts!",
}

type Service struct {
	tasks    Tasks
	notifier notify.Notifier
	clock    clock.Clock
	cfg      Config
	logger   *zap.Logger
	cron     *cron.Cron
	pick     func(n int) int
}

func New(tasks Tasks, notifier notify.Notifier, clk clock.Clock, logger *zap.Logger, cfg Config) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.New(cfg.Location)
	}
	if notifier == nil {
		notifier = notify.NewLog(logger)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.UpcomingWindow <= 0 {
		cfg.UpcomingWindow = 24 * time.Hour
	}
	return &Service{
		tasks:    tasks,
		notifier: notifier,
		clock:    clk,
		cfg:      cfg,
		logger:   logger.Named("digest"),
		pick:     rand.IntN,
	}
}

// Start registers every configured job. Empty schedules are skipped.
func (s *Service) Start() error {
	s.cron = cron.New(cron.WithLocation(s.cfg.Location))
	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) error
	}{
		{"daily_progress", s.cfg.DailySchedule, s.DailyProgress},
		{"upcoming_tasks", s.cfg.UpcomingSchedule, s.UpcomingTasks},
		{"motivation", s.cfg.MotivationSchedule, s.Motivation},
	}
	for _, job := range jobs {
		if job.schedule == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.schedule, func() {
			if err := job.run(context.Background()); err != nil {
				s.logger.Error("digest job failed", zap.String("job", job.name), zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("digest job %s: %w", job.name, err)
		}
	}
	s.cron.Start()
	s.logger.Info("digest jobs started")
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

// DailyProgress reports the overall completion rate.
func (s *Service) DailyProgress(ctx context.Context) error {
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return err
	}
	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}
	n := ProgressNotification(len(tasks), completed)
	n.CreatedAt = s.clock.Now()
	return s.notifier.Notify(ctx, n)
}

// UpcomingTasks announces incomplete tasks due within the window. Nothing is
// sent when none are due.
func (s *Service) UpcomingTasks(ctx context.Context) error {
	due, err := s.tasks.DueWithin(ctx, s.clock.Now().In(s.cfg.Location), s.cfg.UpcomingWindow)
	if err != nil {
		return err
	}
	n, ok := UpcomingNotification(due)
	if !ok {
		return nil
	}
	n.CreatedAt = s.clock.Now()
	return s.notifier.Notify(ctx, n)
}

func (s *Service) Motivation(ctx context.Context) error {
	return s.notifier.Notify(ctx, domain.Notification{
		Title:     "Daily Motivation",
		Body:      motivations[s.pick(len(motivations))],
		Tag:       "daily-motivation",
		CreatedAt: s.clock.Now(),
	})
}

// ProgressNotification picks the message by completion rate: 80% and above is
// praise, 50% and above is encouragement, anything lower counts what is left.
func ProgressNotification(total, completed int) domain.Notification {
	rate := 0
	if total > 0 {
		rate = int(math.Round(float64(completed) / float64(total) * 100))
	}
	var emoji, body string
	switch {
	case rate >= 80:
		emoji, body = "🎉", fmt.Sprintf("Great job! You've completed %d%% of your tasks.", rate)
	case rate >= 50:
		emoji, body = "💪", fmt.Sprintf("Keep going! You're %d%% done with your tasks.", rate)
	default:
		emoji, body = "🚀", fmt.Sprintf("Let's boost productivity! %d tasks remaining.", total-completed)
	}
	return domain.Notification{
		Title: emoji + " Daily Progress Update",
		Body:  body,
		Tag:   "daily-progress",
		Link:  "/analytics",
	}
}

// UpcomingNotification lists the first three titles and counts the rest.
func UpcomingNotification(tasks []domain.Task) (domain.Notification, bool) {
	if len(tasks) == 0 {
		return domain.Notification{}, false
	}
	titles := make([]string, 0, 3)
	for i := 0; i < len(tasks) && i < 3; i++ {
		titles = append(titles, tasks[i].Title)
	}
	body := strings.Join(titles, ", ")
	if len(tasks) > 3 {
		body += fmt.Sprintf(" and %d more", len(tasks)-3)
	}
	plural := ""
	if len(tasks) > 1 {
		plural = "s"
	}
	return domain.Notification{
		Title: fmt.Sprintf("📚 %d task%s due soon", len(tasks), plural),
		Body:  body,
		Tag:   "upcoming-tasks",
		Link:  "/dashboard",
	}, true
}

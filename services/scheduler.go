// Package services: Scheduler, zamanlanmış arka plan görevleri.
//
// Görevler github.com/robfig/cron/v3 ile çalışır:
//   - session_cleanup: süresi dolan refresh oturumlarını siler
//   - daily_digest: ertesi günün siparişlerini ve doluluğunu sahibine e-postalar
//
// Graceful shutdown: main.go'da Stop çağrılır, çalışan görevin bitmesi beklenir.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/akinalp/pastane/config"
	"github.com/akinalp/pastane/models"
	"github.com/akinalp/pastane/pkg/email"
	"github.com/akinalp/pastane/pkg/logger"
	"github.com/akinalp/pastane/pkg/metrics"
	"github.com/akinalp/pastane/repository"
)

// jobTimeout, tek bir görev çalıştırmasının üst sınırı.
const jobTimeout = 2 * time.Minute

const (
	JobSessionCleanup = "session_cleanup"
	JobDailyDigest    = "daily_digest"
)

// Scheduler, zamanlanmış görevler.
type Scheduler interface {
	Start()
	// Stop, yeni çalıştırmaları durdurur ve süren görevlerin bitmesini bekler.
	Stop()
	CleanupSessions(ctx context.Context) (int64, error)
	SendDailyDigest(ctx context.Context) error
}

type scheduler struct {
	cron        *cron.Cron
	sessionRepo repository.SessionRepository
	calendar    CalendarService
	mailer      email.Sender
	log         *zap.Logger
	now         func() time.Time
}

// NewScheduler, cron ifadelerini doğrular ve görevleri kaydeder.
func NewScheduler(
	cfg config.JobsConfig,
	sessionRepo repository.SessionRepository,
	calendar CalendarService,
	mailer email.Sender,
) (Scheduler, error) {
	log := logger.Named("jobs")
	s := &scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLogger{log}),
			cron.SkipIfStillRunning(cronLogger{log}),
		)),
		sessionRepo: sessionRepo,
		calendar:    calendar,
		mailer:      mailer,
		log:         log,
		now:         time.Now,
	}

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{JobSessionCleanup, cfg.SessionCleanup, func(ctx context.Context) error {
			_, err := s.CleanupSessions(ctx)
			return err
		}},
		{JobDailyDigest, cfg.DailyDigest, s.SendDailyDigest},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, s.wrap(j.name, j.run)); err != nil {
			return nil, fmt.Errorf("invalid schedule for %s: %w", j.name, err)
		}
	}
	return s, nil
}

func (s *scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

func (s *scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *scheduler) wrap(name string, run func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := s.now()
		err := run(ctx)
		metrics.JobRun(name, err == nil)
		if err != nil {
			s.log.Error("job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.log.Debug("job finished", zap.String("job", name), zap.Duration("took", s.now().Sub(start)))
	}
}

func (s *scheduler) CleanupSessions(ctx context.Context) (int64, error) {
	n, err := s.sessionRepo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("expired sessions removed", zap.Int64("count", n))
	}
	return n, nil
}

// SendDailyDigest, yarının özetini gönderir. Siparişsiz günler için de
// gönderilir; sahibi boş günü de bilmek ister.
func (s *scheduler) SendDailyDigest(ctx context.Context) error {
	tomorrow := s.now().AddDate(0, 0, 1).Format(models.DateLayout)

	day, err := s.calendar.Day(ctx, tomorrow, true)
	if err != nil {
		return err
	}

	digest := email.Digest{
		Date:   day.Date,
		Score:  day.Score,
		Tier:   string(day.Tier),
		Orders: make([]email.DigestOrder, 0, len(day.Orders)),
	}
	for _, o := range day.Orders {
		if o.Status == models.OrderStatusCancelled {
			continue
		}
		digest.Orders = append(digest.Orders, email.DigestOrder{
			Number:   o.OrderNumber,
			Customer: o.CustomerName,
			Category: o.CategoryName,
			Quantity: o.Quantity,
			Status:   string(o.Status),
			IsGift:   o.IsGift,
		})
	}

	return s.mailer.SendDailyDigest(ctx, digest)
}

// cronLogger, cron.Logger'ı zap'e bağlar.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}

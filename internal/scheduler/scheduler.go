package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"zhipin-sync/internal/notifier"
	"zhipin-sync/internal/reconciler"
	"zhipin-sync/internal/syncer"

	"golang.org/x/sync/errgroup"
)

// Config 自动对账调度配置。
type Config struct {
	Enabled      bool   `yaml:"enabled" json:"enabled"`
	Interval     string `yaml:"interval" json:"interval"`
	RunOnStartup bool   `yaml:"run_on_startup" json:"run_on_startup"`
}

// Reconciler 调度层消费的对账接口。
type Reconciler interface {
	SyncMissingBrands(ctx context.Context, tokenOverride string, force bool) (reconciler.Outcome, error)
}

// Scheduler 周期性补同步缺失品牌。
// 单次失败只记录日志，循环继续；与手动同步的并发冲突由编排层的
// 单写者保护兜底，此处遇到冲突直接跳过本轮。
type Scheduler struct {
	recon        Reconciler
	notif        notifier.Notifier
	interval     time.Duration
	runOnStartup bool
	logger       *log.Logger
	newTicker    func(time.Duration) ticker
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewScheduler 创建 Scheduler，解析配置的间隔。
func NewScheduler(recon Reconciler, notif notifier.Notifier, cfg Config) *Scheduler {
	interval := 6 * time.Hour
	if cfg.Interval != "" {
		if d, err := time.ParseDuration(cfg.Interval); err == nil && d > 0 {
			interval = d
		}
	}
	return &Scheduler{
		recon:        recon,
		notif:        notif,
		interval:     interval,
		runOnStartup: cfg.RunOnStartup,
		logger:       log.New(os.Stdout, "[scheduler] ", log.LstdFlags),
		newTicker:    defaultTicker,
	}
}

// Start 启动调度循环，直到上下文取消。
func (s *Scheduler) Start(ctx context.Context) error {
	if s.recon == nil {
		return fmt.Errorf("scheduler missing reconciler")
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if s.runOnStartup {
			s.runOnce(ctx)
		}

		tick := s.newTicker(s.interval)
		defer tick.Stop()
		ch := tick.C()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ch:
				s.runOnce(ctx)
			drain:
				for {
					select {
					case <-ch:
						continue
					default:
						break drain
					}
				}
			}
		}
	})

	return g.Wait()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	outcome, err := s.recon.SyncMissingBrands(ctx, "", false)
	if err != nil {
		if errors.Is(err, syncer.ErrSyncInProgress) {
			s.logger.Printf("skip auto reconcile: another sync is running")
			return
		}
		s.logger.Printf("auto reconcile failed: %v", err)
		return
	}

	if outcome.Record == nil {
		// 没有缺失品牌，无事可做。
		return
	}
	s.logger.Printf("auto reconcile synced=%d failed=%d", len(outcome.SyncedBrands), len(outcome.FailedBrands))

	if s.notif != nil {
		if err := s.notif.NotifyRunCompleted(ctx, *outcome.Record); err != nil {
			s.logger.Printf("notify run completed: %v", err)
		}
	}
}

func defaultTicker(d time.Duration) ticker {
	t := time.NewTicker(d)
	return tickerWrapper{t}
}

type tickerWrapper struct {
	*time.Ticker
}

func (t tickerWrapper) C() <-chan time.Time { return t.Ticker.C }
func (t tickerWrapper) Stop()               { t.Ticker.Stop() }

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"zhipin-sync/internal/api"
	"zhipin-sync/internal/brandmap"
	"zhipin-sync/internal/mapper"
	"zhipin-sync/internal/merge"
	"zhipin-sync/internal/notifier"
	"zhipin-sync/internal/reconciler"
	"zhipin-sync/internal/scheduler"
	"zhipin-sync/internal/storage"
	"zhipin-sync/internal/syncer"
	"zhipin-sync/internal/token"
	"zhipin-sync/internal/upstream"
)

// AppConfig 应用配置。
type AppConfig struct {
	Server    ServerConfig           `yaml:"server"`
	Database  DatabaseConfig         `yaml:"database"`
	Upstream  upstream.Config        `yaml:"upstream"`
	Sync      syncer.Config          `yaml:"sync"`
	Brands    brandmap.Config        `yaml:"brands"`
	Scheduler scheduler.Config       `yaml:"scheduler"`
	Token     TokenConfig            `yaml:"token"`
	Email     notifier.EmailConfig   `yaml:"email"`
	Webhook   notifier.WebhookConfig `yaml:"webhook"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type TokenConfig struct {
	Path string `yaml:"path"`
}

func main() {
	reconcileOnce := flag.Bool("reconcile", false, "补同步缺失品牌后退出")
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Printf("load config error: %v", err)
		return
	}

	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath = "zhipin.db"
	}

	store, err := storage.NewStore(dbPath)
	if err != nil {
		log.Printf("init store error: %v", err)
		return
	}
	defer store.Close()

	table := brandmap.NewStatic(cfg.Brands)
	conv := mapper.New(table, nil)
	newClient := func(tok string) syncer.UpstreamClient {
		return upstream.NewClient(cfg.Upstream, tok, nil)
	}
	orch := syncer.New(newClient, conv, table, cfg.Sync, nil)
	tokens := token.NewStore(cfg.Token.Path)
	persist := merge.NewPersister(store, nil)
	recon := reconciler.New(table, orch, tokens, store, persist, nil)
	notif := buildNotifier(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *reconcileOnce {
		if err := runReconcileOnce(ctx, recon); err != nil {
			log.Printf("reconcile error: %v", err)
		}
		return
	}

	handler := api.NewHandler(orch, recon, persist, store, tokens, notif)

	addr := cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: handler}

	var sched backgroundRunner
	if cfg.Scheduler.Enabled {
		sched = scheduler.NewScheduler(recon, notif, cfg.Scheduler)
	}

	log.Printf("listening on %s", addr)
	if err := runServer(ctx, srv, sched, 5*time.Second); err != nil {
		log.Printf("server error: %v", err)
	}
}

// httpServer 抽象 HTTP 服务生命周期，便于测试替换。
type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// backgroundRunner 后台任务接口。
type backgroundRunner interface {
	Start(ctx context.Context) error
}

// brandReconciler 手动对账模式消费的接口。
type brandReconciler interface {
	SyncMissingBrands(ctx context.Context, tokenOverride string, force bool) (reconciler.Outcome, error)
}

// runServer 运行 HTTP 服务与后台调度，收到取消信号时优雅关闭。
func runServer(ctx context.Context, srv httpServer, sched backgroundRunner, shutdownTimeout time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	if sched != nil {
		g.Go(func() error {
			if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runReconcileOnce 一次性补同步缺失品牌，供命令行手动触发。
func runReconcileOnce(ctx context.Context, recon brandReconciler) error {
	outcome, err := recon.SyncMissingBrands(ctx, "", false)
	if err != nil {
		return err
	}
	log.Printf("reconcile done synced=%v failed=%v", outcome.SyncedBrands, outcome.FailedBrands)
	for brand, msg := range outcome.Errors {
		log.Printf("  %s: %s", brand, msg)
	}
	return nil
}

func loadConfig() (AppConfig, error) {
	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return AppConfig{}, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func buildNotifier(cfg AppConfig) notifier.Notifier {
	channels := notifier.Multi{notifier.NewLogNotifier(nil)}
	if cfg.Email.Host != "" && cfg.Email.Port != 0 && cfg.Email.From != "" && len(cfg.Email.To) > 0 {
		channels = append(channels, notifier.NewEmailNotifier(cfg.Email, nil))
	} else {
		log.Printf("email notifier disabled: missing host/port/from/to")
	}
	if cfg.Webhook.URL != "" {
		channels = append(channels, notifier.NewWebhookNotifier(cfg.Webhook))
	}
	return channels
}

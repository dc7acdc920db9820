package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/vietddude/akashic/internal/capture/downloader"
	"github.com/vietddude/akashic/internal/capture/session"
	"github.com/vietddude/akashic/internal/core/config"
	"github.com/vietddude/akashic/internal/core/lists"
	"github.com/vietddude/akashic/internal/discovery/classifier"
	"github.com/vietddude/akashic/internal/discovery/health"
	"github.com/vietddude/akashic/internal/discovery/poller"
	"github.com/vietddude/akashic/internal/infra/feed"
	"github.com/vietddude/akashic/internal/infra/metadata"
	redisclient "github.com/vietddude/akashic/internal/infra/redis"
	"github.com/vietddude/akashic/internal/infra/storage"
	"github.com/vietddude/akashic/internal/infra/storage/memory"
	"github.com/vietddude/akashic/internal/infra/storage/postgres"
)

// Watcher is the main application struct that manages the poll loop and the
// capture sessions it spawns.
type Watcher struct {
	cfg Config

	poller       *poller.Poller
	dispatcher   *classifier.Dispatcher
	sessions     *session.Manager
	healthMon    *health.Monitor
	healthServer *health.Server
	grpcHealth   *health.GRPCServer

	repo        storage.SessionRepository
	db          *postgres.DB
	redisClient *redisclient.Client
	lock        *flock.Flock

	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *slog.Logger
}

// Config holds the application configuration.
type Config struct {
	Port       int
	GRPCPort   int
	LockFile   string
	Feed       feed.Config
	Poll       poller.Config
	Metadata   config.MetadataConfig
	Lists      lists.Paths
	Downloader config.DownloaderConfig
	Capture    config.CaptureConfig
	Redis      redisclient.Config
	Database   postgres.Config
}

// FromAppConfig maps the loaded file configuration onto a watcher Config.
func FromAppConfig(cfg *config.AppConfig) Config {
	return Config{
		Port:       cfg.Server.Port,
		GRPCPort:   cfg.Server.GRPCPort,
		LockFile:   cfg.LockFile,
		Feed:       cfg.Feed,
		Poll:       cfg.Poll,
		Metadata:   cfg.Metadata,
		Lists:      cfg.Lists,
		Downloader: cfg.Downloader,
		Capture:    cfg.Capture,
		Redis:      cfg.Redis,
		Database:   cfg.Database,
	}
}

// Option overrides a collaborator built by NewWatcher.
type Option func(*overrides)

type overrides struct {
	feed       poller.Source
	downloader downloader.Downloader
	metadata   metadata.Source
}

// WithFeedSource replaces the Holodex client.
func WithFeedSource(src poller.Source) Option {
	return func(o *overrides) { o.feed = src }
}

// WithDownloader replaces the yt-dlp downloader.
func WithDownloader(d downloader.Downloader) Option {
	return func(o *overrides) { o.downloader = d }
}

// WithMetadataSource replaces the YouTube Data API client.
func WithMetadataSource(m metadata.Source) Option {
	return func(o *overrides) { o.metadata = m }
}

// NewWatcher creates a new Watcher instance with all dependencies initialized.
// A missing required list aborts construction.
func NewWatcher(cfg Config, opts ...Option) (*Watcher, error) {
	var o overrides
	for _, opt := range opts {
		opt(&o)
	}

	// 1. Load tracking lists
	sets, err := lists.Load(cfg.Lists)
	if err != nil {
		return nil, fmt.Errorf("failed to load lists: %w", err)
	}
	archive, check, keywords := sets.Sizes()
	slog.Info("Loaded tracking lists", "archive", archive, "check", check, "keywords", keywords)

	// 2. Initialize Storage
	var repo storage.SessionRepository
	var db *postgres.DB
	if cfg.Database.URL != "" {
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate(context.Background()); err != nil {
			db.Close()
			return nil, err
		}
		repo = postgres.NewSessionRepo(db)
		slog.Info("Using PostgreSQL session journal")
	} else {
		repo = memory.NewSessionRepo()
		slog.Info("Using Memory session journal")
	}

	// 3. Initialize Redis target locks
	var redisClient *redisclient.Client
	var locker session.Locker
	if cfg.Redis.URL != "" {
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, target locks are process-local", "error", err)
		} else {
			locker = redisClient
			slog.Info("Using Redis target locks")
		}
	}

	// 4. External collaborators
	src := o.feed
	if src == nil {
		client, err := feed.NewClient(cfg.Feed)
		if err != nil {
			return nil, err
		}
		src = client
	}
	dl := o.downloader
	if dl == nil {
		ytdlp, err := downloader.NewYTDLP(cfg.Downloader.Binary)
		if err != nil {
			return nil, err
		}
		dl = ytdlp
	}
	md := o.metadata
	if md == nil && cfg.Metadata.APIKey != "" {
		md = metadata.NewYouTubeClient(cfg.Metadata.Endpoint, cfg.Metadata.APIKey, cfg.Metadata.Timeout)
	}

	// 5. Sessions, classification and polling
	registry := session.NewRegistry(locker, cfg.Capture.LockTTL)
	manager := session.NewManager(session.Deps{
		Downloader: dl,
		Metadata:   md,
		Repo:       repo,
		Policy:     cfg.Capture.Backoff.WithDefaults(),
		CookieFile: cfg.Downloader.CookieFile,
	}, downloader.Options{
		TempDir:       cfg.Downloader.TempDir,
		HomeDir:       cfg.Downloader.HomeDir,
		LiveOnly:      cfg.Downloader.LiveOnly,
		SocketTimeout: cfg.Downloader.SocketTimeout,
	}, registry)
	manager.LiveOnlyExternal = cfg.Capture.ExternalLiveOnly()

	cls := classifier.New(sets, classifier.WithLiveOnlyExternal(cfg.Capture.ExternalLiveOnly()))
	dispatcher := classifier.NewDispatcher(cls, nil, manager)
	p := poller.New(src, dispatcher, cfg.Poll)

	// 6. Initialize Health Monitor
	healthMon := health.NewMonitor(p, manager, dispatcher.Seen(), repo)
	var grpcHealth *health.GRPCServer
	if cfg.GRPCPort != 0 {
		grpcHealth = health.NewGRPCServer(healthMon, cfg.GRPCPort)
	}

	var lock *flock.Flock
	if cfg.LockFile != "" {
		lock = flock.New(cfg.LockFile)
	}

	return &Watcher{
		cfg:          cfg,
		poller:       p,
		dispatcher:   dispatcher,
		sessions:     manager,
		healthMon:    healthMon,
		healthServer: health.NewServer(healthMon, cfg.Port),
		grpcHealth:   grpcHealth,
		repo:         repo,
		db:           db,
		redisClient:  redisClient,
		lock:         lock,
		log:          slog.Default().With("component", "watcher"),
	}, nil
}

// Start acquires the instance lock and launches the servers and poll loop.
func (w *Watcher) Start(ctx context.Context) error {
	if w.lock != nil {
		ok, err := w.lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return errors.New("another akashic instance is already running")
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	// Start Health Server
	go func() {
		if err := w.healthServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.log.Error("Health server failed", "error", err)
		}
	}()

	if w.grpcHealth != nil {
		go func() {
			if err := w.grpcHealth.Start(runCtx, 10*time.Second); err != nil {
				w.log.Error("gRPC health server failed", "error", err)
			}
		}()
	}

	// Start DB Metrics Collector
	if w.db != nil {
		w.db.StartMetricsCollector(runCtx)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.poller.Run(runCtx); err != nil {
			w.log.Error("Poller failed", "error", err)
		}
	}()

	return nil
}

// Stop cancels the poll loop and every session, then releases resources.
// Sessions that do not wind down before ctx expires are abandoned.
func (w *Watcher) Stop(ctx context.Context) error {
	w.log.Info("Stopping Watcher...")

	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		w.sessions.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		w.log.Warn("Sessions still running at shutdown", "active", w.sessions.Active())
	}

	if w.grpcHealth != nil {
		w.grpcHealth.Stop()
	}

	// Close Redis
	if w.redisClient != nil {
		if err := w.redisClient.Close(); err != nil {
			w.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if w.db != nil {
		if err := w.db.Close(); err != nil {
			w.log.Warn("Failed to close database", "error", err)
		}
	}
	if w.lock != nil {
		if err := w.lock.Unlock(); err != nil {
			w.log.Warn("Failed to release lock", "error", err)
		}
	}

	// Stop Health Server
	return w.healthServer.Stop(ctx)
}

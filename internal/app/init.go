package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	server "github.com/Pelanglene/213bot/internal/adapters/primary/http"
	activityController "github.com/Pelanglene/213bot/internal/adapters/primary/http/controllers/activity"
	cooldownController "github.com/Pelanglene/213bot/internal/adapters/primary/http/controllers/cooldown"
	dailyvoteController "github.com/Pelanglene/213bot/internal/adapters/primary/http/controllers/dailyvote"
	healthcheckController "github.com/Pelanglene/213bot/internal/adapters/primary/http/controllers/healthcheck"
	statsController "github.com/Pelanglene/213bot/internal/adapters/primary/http/controllers/stats"
	alerterAdapter "github.com/Pelanglene/213bot/internal/adapters/secondary/alerter"
	"github.com/Pelanglene/213bot/internal/adapters/secondary/reactions"
	"github.com/Pelanglene/213bot/internal/adapters/secondary/storage/boltdb"
	"github.com/Pelanglene/213bot/internal/adapters/secondary/storage/file"
	"github.com/Pelanglene/213bot/internal/adapters/secondary/storage/inmemory"
	"github.com/Pelanglene/213bot/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/Pelanglene/213bot/internal/adapters/secondary/storage/redis"
	s3Adapter "github.com/Pelanglene/213bot/internal/adapters/secondary/storage/s3"
	tgAdapter "github.com/Pelanglene/213bot/internal/adapters/secondary/telegram"
	"github.com/Pelanglene/213bot/internal/pkg/clock"
	"github.com/Pelanglene/213bot/internal/pkg/metrics"
	"github.com/Pelanglene/213bot/internal/ports/cache"
	"github.com/Pelanglene/213bot/internal/ports/service"
	"github.com/Pelanglene/213bot/internal/ports/storage"
	alerterService "github.com/Pelanglene/213bot/internal/services/alerter"
	jobScheduler "github.com/Pelanglene/213bot/internal/services/jobs"
	"github.com/Pelanglene/213bot/internal/services/notifier"
	"github.com/Pelanglene/213bot/internal/usecases/activity"
	"github.com/Pelanglene/213bot/internal/usecases/cooldown"
	"github.com/Pelanglene/213bot/internal/usecases/dailyvote"
	"github.com/Pelanglene/213bot/internal/usecases/usagestats"
	"github.com/redis/go-redis/v9"
)

type Dependencies struct {
	HTTPServer   *http.Server
	JobScheduler *jobScheduler.Scheduler
	// Closers закрываются при остановке в обратном порядке
	Closers []namedCloser
}

type namedCloser struct {
	name   string
	closer io.Closer
}

// backends открытые подключения к внешним хранилищам
type backends struct {
	store   storage.IBucketStore
	redis   *redis.Client
	checks  map[string]healthcheckController.Check
	closers []namedCloser
}

func (b *backends) addCloser(name string, c io.Closer) {
	b.closers = append(b.closers, namedCloser{name: name, closer: c})
}

// useCases сервисы ядра
type useCases struct {
	Tracker   *activity.Tracker
	Cooldowns *cooldown.Gate
	Limiter   *cooldown.RateLimiter
	Votes     *dailyvote.Aggregator
	Usage     *usagestats.Ledger
	Reactions *reactions.Store
}

// initDependencies инициализирует все зависимости приложения
func (a *App) initDependencies(ctx context.Context) (*Dependencies, error) {
	clk, err := clock.Load(a.Cfg.Engagement.Timezone)
	if err != nil {
		a.Log.Warn("unknown timezone, falling back to UTC",
			"timezone", a.Cfg.Engagement.Timezone,
			"error", err)
	}

	m := metrics.New()

	b, err := a.initStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	reactionsCache, err := a.initReactionsCache(b)
	if err != nil {
		a.closeAll(b.closers)
		return nil, fmt.Errorf("failed to init reactions cache: %w", err)
	}

	store := b.store
	if store != nil {
		store = metrics.InstrumentStore(store, a.Cfg.Storage.Backend, m)
	}

	uc := &useCases{
		Tracker:   activity.New(clk.Location(), a.Log),
		Cooldowns: cooldown.New(a.Log),
		Limiter:   cooldown.NewRateLimiter(a.Cfg.Engagement.RateLimit, a.Log),
		Votes:     dailyvote.New(store, clk, m, a.Log),
		Usage:     usagestats.New(store, clk, m, a.Log),
		Reactions: reactions.NewStore(reactionsCache, reactions.DefaultTTL),
	}

	notify := a.initNotifier()
	alerts := a.initAlerter()

	scheduler, err := a.initJobScheduler(uc, notify, alerts, clk, m)
	if err != nil {
		a.closeAll(b.closers)
		return nil, fmt.Errorf("failed to init job scheduler: %w", err)
	}

	httpServer := server.NewHTTPServer(a.Cfg.Server, a.Log,
		healthcheckController.New(b.checks, m.Registry, a.Log),
		activityController.New(uc.Tracker, a.Cfg.Engagement.Policy(), clk, a.Log),
		cooldownController.New(uc.Cooldowns, a.Cfg.Engagement.DefaultCooldown, clk, a.Log),
		dailyvoteController.New(uc.Votes, uc.Reactions, clk, a.Log),
		statsController.New(uc.Usage, uc.Limiter, a.Cfg.Engagement.TopLimit, clk, a.Log),
	)

	return &Dependencies{
		HTTPServer:   httpServer,
		JobScheduler: scheduler,
		Closers:      b.closers,
	}, nil
}

// initStorage открывает бэкенд бакетов; для memory store == nil
func (a *App) initStorage(ctx context.Context) (*backends, error) {
	b := &backends{checks: make(map[string]healthcheckController.Check)}
	backend := a.Cfg.Storage.Backend

	switch backend {
	case BackendMemory:
		a.Log.Warn("storage backend is memory, data is lost on restart")

	case BackendFile:
		store, err := file.NewBucketStore(a.Cfg.Storage.Dir)
		if err != nil {
			// без каталога бот продолжает работу, бакеты живут только в памяти
			a.Log.Error("failed to create storage dir, persistence disabled",
				"dir", a.Cfg.Storage.Dir,
				"error", err)
			break
		}
		b.store = store

	case BackendBolt:
		store, err := boltdb.Open(a.Cfg.Storage.BoltPath)
		if err != nil {
			return nil, err
		}
		b.store = store
		b.addCloser("bolt", store)

	case BackendPostgres:
		db, err := a.Cfg.Postgres.NewConnection()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := pg.RunMigrations(ctx, db, a.Log); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		persistenceLayer := pg.NewDB(db)
		b.store = pg.NewBucketStore(persistenceLayer)
		b.checks["postgres"] = persistenceLayer.Ping
		b.addCloser("postgres", persistenceLayer)

	case BackendRedis:
		rdb, err := a.connectRedis(b)
		if err != nil {
			return nil, err
		}
		b.store = redisAdapter.NewBucketStore(rdb, a.Cfg.Redis.KeyPrefix)

	case BackendS3:
		client, err := a.Cfg.S3.NewClient()
		if err != nil {
			return nil, fmt.Errorf("failed to init s3 client: %w", err)
		}
		b.store = s3Adapter.NewBucketStore(client, a.Cfg.S3.Bucket, a.Cfg.S3.Prefix, a.Log)
		b.checks["s3"] = func(ctx context.Context) error {
			_, err := client.BucketExists(ctx, a.Cfg.S3.Bucket)
			return err
		}
	}

	a.Log.Info("bucket storage initialized", "backend", backend)
	return b, nil
}

// connectRedis одно подключение на процесс: его делят хранилище бакетов и кэш реакций
func (a *App) connectRedis(b *backends) (*redis.Client, error) {
	if b.redis != nil {
		return b.redis, nil
	}

	rdb, err := a.Cfg.Redis.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	client := redisAdapter.NewClient(rdb)
	b.redis = rdb
	b.checks["redis"] = client.Ping
	b.addCloser("redis", client)

	a.Log.Info("redis connected successfully")
	return rdb, nil
}

func (a *App) initReactionsCache(b *backends) (cache.Cache, error) {
	if a.Cfg.Storage.ReactionsCache != BackendRedis {
		return inmemory.NewCache(inmemory.DefaultCacheSize, reactions.DefaultTTL), nil
	}

	rdb, err := a.connectRedis(b)
	if err != nil {
		return nil, err
	}
	return redisAdapter.NewClient(rdb), nil
}

// initNotifier без токена бота сообщения только пишутся в лог
func (a *App) initNotifier() service.INotifier {
	if !a.Cfg.Telegram.Enabled() {
		a.Log.Warn("telegram bot token is not set, chat messages go to the log only")
		return notifier.NewLogNotifier(a.Log)
	}
	return tgAdapter.NewClient(a.Cfg.Telegram.APIURL, a.Cfg.Telegram.BotToken, a.Log)
}

func (a *App) initAlerter() service.IAlerterService {
	if !a.Cfg.Alerter.Enabled() {
		return alerterService.New(nil, a.Name, a.Log)
	}
	client := alerterAdapter.NewClient(a.Cfg.Alerter, a.Cfg.Telegram.APIURL, a.Log)
	return alerterService.New(client, a.Name, a.Log)
}

func (a *App) initJobScheduler(
	uc *useCases,
	notify service.INotifier,
	alerts service.IAlerterService,
	clk clock.Clock,
	m *metrics.Metrics,
) (*jobScheduler.Scheduler, error) {
	scheduler := jobScheduler.NewScheduler(a.Log, alerts, m)

	deadChat := jobScheduler.NewDeadChatScan(
		uc.Tracker,
		notify,
		a.Cfg.Engagement.Policy(),
		a.Cfg.Engagement.ScanInterval,
		a.Cfg.Engagement.DeadChatText,
		clk,
		m,
		a.Log,
	)
	scheduler.Register(deadChat)
	a.Log.Info("dead chat scan job registered", "interval", a.Cfg.Engagement.ScanInterval)

	winner, err := jobScheduler.NewDailyWinner(
		uc.Votes,
		uc.Reactions,
		notify,
		a.Cfg.Engagement.WinnerSchedule,
		a.Cfg.Engagement.WinnerText,
		clk,
		a.Log,
	)
	if err != nil {
		return nil, err
	}
	scheduler.Register(winner)
	a.Log.Info("daily winner job registered", "schedule", a.Cfg.Engagement.WinnerSchedule)

	return scheduler, nil
}

func (a *App) closeAll(closers []namedCloser) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].closer.Close(); err != nil {
			a.Log.Error("failed to close resource", "resource", closers[i].name, "error", err)
		}
	}
}

package di

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"CourtEdge/internal/domain/repository"
	"CourtEdge/internal/handler/api"
	"CourtEdge/internal/handler/ws"
	internalrepo "CourtEdge/internal/repository"
	"CourtEdge/internal/service/ratelimit"
	"CourtEdge/internal/service/statsapi"
	"CourtEdge/internal/service/teams"
	"CourtEdge/internal/services/scoring"
	"CourtEdge/internal/usecase"
	"CourtEdge/pkg/cache"
	pkgch "CourtEdge/pkg/clickhouse"
	"CourtEdge/pkg/config"
	xhttp "CourtEdge/pkg/http"
	"CourtEdge/pkg/http/middleware"
	pkgkafka "CourtEdge/pkg/kafka"
	applogger "CourtEdge/pkg/logger"
	"CourtEdge/pkg/metrics"
	"CourtEdge/pkg/queue"
	"CourtEdge/pkg/server"
	"CourtEdge/pkg/util"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideDigest ships warn/error digests to Kafka when log.digest is enabled.
func ProvideDigest(cfg *config.Config, producer *pkgkafka.Producer) *applogger.Digest {
	if !cfg.Log.Digest.Enabled || producer == nil {
		return nil
	}
	return applogger.NewDigest(applogger.DigestConfig{
		Interval:  cfg.Log.Digest.Interval,
		MaxKeys:   cfg.Log.Digest.MaxKeys,
		Topic:     cfg.Log.Digest.Topic,
		Sink:      producer,
		Component: "courtedge",
	})
}

func ProvideLogger(cfg *config.Config, digest *applogger.Digest) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if digest != nil {
		l.AttachDigest(digest)
	}
	return l, nil
}

func ProvideMetrics() repository.Metrics {
	return metrics.Default()
}

// ProvideTeamDirectory loads teams.file or the built-in NBA list.
func ProvideTeamDirectory(cfg *config.Config) (repository.TeamDirectory, error) {
	dir, err := teams.Load(cfg.Teams.File)
	if err != nil {
		return nil, fmt.Errorf("team directory: %w", err)
	}
	return dir, nil
}

// ProvideClickHouseClient connects and ensures the game table, or returns nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if err := client.InitSchema(ctx, internalrepo.GameStoreSchema(cfg.ClickHouse.Database, cfg.ClickHouse.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

func gameLocation(cfg *config.Config) *time.Location {
	return util.LoadLocationDefault(cfg.StatsAPI.Timezone, time.UTC)
}

// ProvideGameStore is nil without ClickHouse.
func ProvideGameStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) *internalrepo.CHGameStore {
	if ch == nil {
		return nil
	}
	table := cfg.ClickHouse.Database + "." + cfg.ClickHouse.Table
	return internalrepo.NewCHGameStore(ch.DB(), table, cfg.Provider.HistoryLimit, gameLocation(cfg), l.Named("clickhouse"))
}

// ProvideArchiveQueue runs deferred archive writes, or is nil when archiving is
// off or configured inline.
func ProvideArchiveQueue(cfg *config.Config, store *internalrepo.CHGameStore, l *applogger.Logger) (*queue.WorkerQueue, error) {
	if store == nil || !cfg.Provider.Archive || cfg.Provider.Queue.Workers == 0 {
		return nil, nil
	}
	q := queue.NewWorkerQueue(l.Named("archive-queue"), queue.QueueConfig{
		Workers:    cfg.Provider.Queue.Workers,
		QueueSize:  cfg.Provider.Queue.Size,
		RetryLimit: cfg.Provider.Queue.RetryLimit,
		RetryDelay: cfg.Provider.Queue.RetryDelay,
	}, internalrepo.NewArchiveGamesJob(store))
	if err := q.Start(); err != nil {
		return nil, fmt.Errorf("archive queue: %w", err)
	}
	return q, nil
}

// ProvideCache builds the game log cache, or nil when caching is disabled.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	if cfg.Cache.Backend == "memory" {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MemoryMaxSize)), nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Cache.Redis.Host, cfg.Cache.Redis.Port),
		cache.WithRedisAuth(cfg.Cache.Redis.Password, cfg.Cache.Redis.DB),
		cache.WithRedisPool(cfg.Cache.Redis.PoolSize, 2, 30*time.Second),
		cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	if cfg.Cache.Backend == "layered" {
		return cache.NewLayeredCache(rc, cache.WithLayeredMemory(cfg.Cache.MemoryMaxSize, cfg.Cache.TTL/4)), nil
	}
	return rc, nil
}

// ProvideGameLogProvider assembles source, archive, cache and metrics layers.
func ProvideGameLogProvider(
	cfg *config.Config,
	store *internalrepo.CHGameStore,
	archiveQueue *queue.WorkerQueue,
	c cache.Service,
	m repository.Metrics,
	l *applogger.Logger,
) (repository.GameLogProvider, error) {
	var (
		p       repository.GameLogProvider
		backend = cfg.Provider.Backend
	)
	switch backend {
	case "archive":
		if store == nil {
			return nil, fmt.Errorf("provider backend archive needs clickhouse")
		}
		p = store
	default:
		p = statsapi.New(cfg.StatsAPI.BaseURL, cfg.StatsAPI.Timeout, cfg.StatsAPI.UserAgent, cfg.StatsAPI.Headers,
			statsapi.WithLeague(cfg.StatsAPI.LeagueID),
			statsapi.WithSeason(cfg.StatsAPI.Season, cfg.StatsAPI.SeasonType),
			statsapi.WithLocation(gameLocation(cfg)),
		)
		if cfg.Provider.Archive && store != nil {
			var opts []internalrepo.ArchivingOption
			if archiveQueue != nil {
				opts = append(opts, internalrepo.WithArchiveQueue(archiveQueue))
			}
			p = internalrepo.NewArchivingProvider(p, store, l.Named("archive"), opts...)
		}
	}
	p = internalrepo.NewInstrumentedProvider(p, m, backend)
	if c != nil {
		p = internalrepo.NewCachedProvider(p, c, cfg.Cache.TTL, l.Named("cache"))
	}
	return p, nil
}

func ProvideEngine(cfg *config.Config) *scoring.Engine {
	return scoring.New(
		scoring.WithWindow(cfg.Scoring.Window),
		scoring.WithHomeBonus(cfg.Scoring.HomeBonus),
		scoring.WithBackToBack(cfg.Scoring.BackToBackCost, cfg.Scoring.BackToBackDays),
		scoring.WithThresholds(cfg.Scoring.StrongThreshold, cfg.Scoring.LeanThreshold),
	)
}

// ProvideHub serves the live matchup feed, or nil when the feed is off.
func ProvideHub(cfg *config.Config, l *applogger.Logger) *ws.Hub {
	if !cfg.UI.FeedEnabled {
		return nil
	}
	return ws.NewHub(func(*http.Request) bool { return true }, l.Named("ws"))
}

// ProvideEventPublisher fans matchups out to Kafka and the websocket feed.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer, hub *ws.Hub) repository.EventPublisher {
	var fan internalrepo.FanoutPublisher
	if producer != nil {
		fan = append(fan, internalrepo.NewKafkaMatchupPublisher(producer, cfg.Kafka.Topic))
	}
	if hub != nil {
		fan = append(fan, hub)
	}
	return fan
}

func ProvideMatchupAnalyzer(
	dir repository.TeamDirectory,
	games repository.GameLogProvider,
	engine *scoring.Engine,
	pub repository.EventPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.MatchupAnalyzer {
	return usecase.NewMatchupAnalyzer(dir, games, engine,
		usecase.WithPublisher(pub),
		usecase.WithMetrics(m),
		usecase.WithLogger(l.Named("matchup")),
	)
}

// ProvideHandlers lists every route group the server exposes.
func ProvideHandlers(
	cfg *config.Config,
	l *applogger.Logger,
	analyzer *usecase.MatchupAnalyzer,
	hub *ws.Hub,
	ch *pkgch.Client,
	c cache.Service,
) []xhttp.Handler {
	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Capacity > 0 {
		limiter = ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
	}
	matchups := api.NewMatchupHandler(l.Named("api"), analyzer, limiterOrNil(limiter), api.PageConfig{
		Title:            cfg.UI.Title,
		DefaultHomeIndex: cfg.UI.DefaultHomeIndex,
		DefaultAwayIndex: cfg.UI.DefaultAwayIndex,
		FeedEnabled:      hub != nil,
	})

	checks := map[string]api.HealthCheck{}
	if ch != nil {
		checks["clickhouse"] = ch.Health
	}
	if rc, ok := c.(*cache.RedisCache); ok {
		checks["redis"] = rc.Health
	}

	handlers := []xhttp.Handler{matchups, api.NewHealthHandler(checks)}
	if hub != nil {
		handlers = append(handlers, hub)
	}
	return handlers
}

// limiterOrNil keeps a nil *Limiter from becoming a non-nil interface.
func limiterOrNil(l *ratelimit.Limiter) middleware.Limiter {
	if l == nil {
		return nil
	}
	return l
}

func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, handlers []xhttp.Handler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(handlers,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetrics(metricsPath, cfg.Server.SlowRequest),
		xhttp.WithLogger(l.Named("http")),
	)
}

func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	digest *applogger.Digest,
	archiveQueue *queue.WorkerQueue,
	pub repository.EventPublisher,
	ch *pkgch.Client,
	c cache.Service,
) *server.App {
	return server.New(cfg, l, srv,
		server.WithDigest(digest),
		server.WithArchiveQueue(archiveQueue),
		server.WithPublisher(pub),
		server.WithClickHouse(ch),
		server.WithCache(c),
	)
}

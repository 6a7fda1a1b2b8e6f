package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-booking/internal/api"
	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/catalog"
	"github.com/hackgods/clinic-booking/internal/config"
	"github.com/hackgods/clinic-booking/internal/db"
	"github.com/hackgods/clinic-booking/internal/events"
	redisclient "github.com/hackgods/clinic-booking/internal/redis"
)

// Runtime is everything a process needs to serve bookings.
type Runtime struct {
	Service *appointment.Service
	Clinics *catalog.Directory
	Checks  []api.DependencyCheck

	closers []func()
}

// Close releases connections in reverse order of creation.
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func Build(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Runtime, error) {
	rt := &Runtime{}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	clinics := catalog.DefaultDirectory()
	if cfg.CatalogFile != "" {
		d, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		clinics = d
		logger.Info().Str("file", cfg.CatalogFile).Int("clinics", len(d.Clinics())).Msg("loaded clinic catalog")
	}
	rt.Clinics = clinics

	store, publishers, err := rt.buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := []appointment.Option{appointment.WithLogger(logger)}

	if cfg.RedisAddr != "" {
		rdb, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("redis connection error: %w", err)
		}
		rt.closers = append(rt.closers, func() {
			if err := rdb.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing redis")
			}
		})
		rt.Checks = append(rt.Checks, api.DependencyCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
		opts = append(opts, appointment.WithLocker(redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)))
		logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")
	}

	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			return nil, fmt.Errorf("kafka publisher: %w", err)
		}
		rt.closers = append(rt.closers, func() {
			if err := kp.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing kafka writer")
			}
		})
		publishers = append(publishers, kp)
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing events to Kafka")
	}

	switch len(publishers) {
	case 0:
	case 1:
		opts = append(opts, appointment.WithPublisher(publishers[0]))
	default:
		opts = append(opts, appointment.WithPublisher(events.Fanout(publishers)))
	}

	rt.Service = appointment.NewService(store, clinics, opts...)
	ok = true
	return rt, nil
}

func (rt *Runtime) buildStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (appointment.Store, []appointment.Publisher, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pgCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connection error: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		rt.Checks = append(rt.Checks, api.DependencyCheck{Name: "postgres", Required: true, Ping: pool.Ping})

		n, err := db.Migrate(pgCtx, pool)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Int("applied_migrations", n).Msg("connected to Postgres")

		repo := appointment.NewPgRepository(pool)
		var pubs []appointment.Publisher
		if cfg.EventLog {
			pubs = append(pubs, repo)
		}
		return repo, pubs, nil

	case config.BackendMongo:
		mCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := db.ConnectMongo(mCtx, cfg.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo connection error: %w", err)
		}
		rt.closers = append(rt.closers, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn().Err(err).Msg("error closing mongo")
			}
		})
		rt.Checks = append(rt.Checks, api.DependencyCheck{
			Name:     "mongo",
			Required: true,
			Ping:     func(ctx context.Context) error { return client.Ping(ctx, nil) },
		})

		repo := appointment.NewMongoRepository(client, cfg.MongoDatabase)
		if err := repo.EnsureIndexes(mCtx); err != nil {
			return nil, nil, err
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")
		return repo, nil, nil

	default:
		logger.Warn().Msg("using in-memory appointment store, data is lost on restart")
		return appointment.NewMemoryStore(), nil, nil
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ArowuTest/mtn-ras-backend/internal/config"
	"github.com/ArowuTest/mtn-ras-backend/internal/logger"
	"github.com/ArowuTest/mtn-ras-backend/internal/repositories"
	"github.com/ArowuTest/mtn-ras-backend/internal/repositories/memory"
	mongorepo "github.com/ArowuTest/mtn-ras-backend/internal/repositories/mongodb"
	pgrepo "github.com/ArowuTest/mtn-ras-backend/internal/repositories/postgres"
	redisrepo "github.com/ArowuTest/mtn-ras-backend/internal/repositories/redis"
	"github.com/ArowuTest/mtn-ras-backend/internal/services"
	mongodb "github.com/ArowuTest/mtn-ras-backend/pkg/mongodb"
	pgclient "github.com/ArowuTest/mtn-ras-backend/pkg/postgres"
	redisclient "github.com/ArowuTest/mtn-ras-backend/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// stores selects which backends a command connects to
type stores struct {
	mongo    bool
	postgres bool
	redis    bool
}

// app holds the configuration and open connections shared by the commands
type app struct {
	cfg   *config.Config
	props *config.Store
	batch config.BatchSettings

	mongo   *mongodb.Client
	db      *mongo.Database
	pg      *pgclient.Client
	redis   *goredis.Client
	queries *pgrepo.QueryRepository
}

func bootstrap(ctx context.Context, need stores) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	path := cfg.Properties.Path
	if propertiesPath != "" {
		path = propertiesPath
	}
	registry := config.NewRegistry()
	props, err := registry.Open(path)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, props: props, batch: config.LoadBatchSettings(props)}

	if need.mongo {
		a.mongo, err = mongodb.NewClient(ctx, config.LoadMongoSettings(props))
		if err != nil {
			a.close()
			return nil, err
		}
		a.db = a.mongo.Database(ctx)
	}

	if need.postgres {
		a.pg, err = pgclient.NewClient(ctx, config.LoadPostgresSettings(props))
		if err != nil {
			a.close()
			return nil, err
		}
		a.queries, err = pgrepo.NewQueryRepository(a.pg.DB, pgrepo.QueryOptions{
			ViewName:    a.batch.ViewName,
			TableName:   a.batch.EvalTableName,
			PageTimeout: a.batch.PageTimeout,
		})
		if err != nil {
			a.close()
			return nil, err
		}
	}

	if need.redis {
		if rs := config.LoadRedisSettings(props); rs.Enabled() {
			a.redis, err = redisclient.Connect(ctx, rs)
			if err != nil {
				a.close()
				return nil, err
			}
		}
	}

	slog.Debug("Bootstrap complete", "properties", props.Path(), "mongodb", a.mongo != nil, "postgres", a.pg != nil, "redis", a.redis != nil)
	return a, nil
}

func (a *app) cursors() repositories.CursorRepository {
	if a.redis == nil {
		slog.Warn("Redis is not configured; the cycle cursor will not survive a restart")
		return memory.NewCursorRepository()
	}
	key := services.CursorKey(config.LoadRedisSettings(a.props).CursorKey, a.batch.Source)
	return redisrepo.NewCursorRepository(a.redis, key)
}

// assembly is the wired assessment pipeline
type assembly struct {
	coordinator *services.AssessmentCoordinator
	refresher   *services.ViewRefresher
	batch       *services.BatchService
	cursors     repositories.CursorRepository
	states      repositories.SubscriberStateRepository
	history     repositories.SubscriberHistoryRepository
}

func (a *app) pipeline(maxPages int) (*assembly, error) {
	source, err := services.NewPageSource(a.batch.Source, a.queries)
	if err != nil {
		return nil, err
	}

	states := mongorepo.NewSubscriberStateRepository(a.db)
	history := mongorepo.NewSubscriberHistoryRepository(a.db)
	coordinator := services.NewAssessmentCoordinator(a.pg.DB, a.queries, a.batch.AccessTimeout)
	refresher := services.NewViewRefresher(a.queries, a.batch.RefreshViewName, a.batch.RefreshTimeout)
	scorer := services.NewRechargeScorer(config.LoadScoringToggles(a.props))

	if maxPages <= 0 {
		maxPages = a.batch.MaxPages
	}
	cursors := a.cursors()
	batch := services.NewBatchService(source, a.queries, states, history, coordinator, scorer, cursors, refresher, services.BatchOptions{
		PageSize:  a.batch.FetchSize,
		BreakTime: a.batch.BreakTime,
		MaxPages:  maxPages,
	})

	return &assembly{
		coordinator: coordinator,
		refresher:   refresher,
		batch:       batch,
		cursors:     cursors,
		states:      states,
		history:     history,
	}, nil
}

func (a *app) close() {
	ctx := context.Background()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			slog.Warn("Error closing redis", "error", err)
		}
	}
	if a.pg != nil {
		a.pg.Close()
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			slog.Warn("Error disconnecting from MongoDB", "error", err)
		}
	}
}

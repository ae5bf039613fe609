package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/orris-inc/keyhub/internal/infrastructure/config"
	"github.com/orris-inc/keyhub/internal/infrastructure/metrics"
	"github.com/orris-inc/keyhub/internal/infrastructure/scheduler"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

// Container holds the infrastructure, repositories, use cases and handlers of
// one process and wires them together. The API server and the worker both
// build one; the worker just never serves HTTP.
type Container struct {
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	repos *repositories
	infra *infrastructure
	ucs   *useCases
	hdlrs *allHandlers

	schedulerManager *scheduler.SchedulerManager
}

func NewContainer(db *gorm.DB, cfg *config.Config, log logger.Interface) (*Container, error) {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
	}

	// Section 1: Infrastructure - Redis, metrics, repositories, provider clients
	if err := c.initInfrastructure(); err != nil {
		return nil, err
	}

	// Section 2: Use cases for keys, batches, violations and provisioning
	c.initUseCases()

	// Section 3: Handlers
	c.initHandlers()

	return c, nil
}

func (c *Container) initInfrastructure() error {
	c.registry = prometheus.NewRegistry()
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.metrics = metrics.New(c.registry)

	if c.cfg.Redis.Enabled {
		client, err := initRedis(c.cfg, c.log)
		if err != nil {
			return err
		}
		c.redis = client
	} else {
		c.log.Warnw("redis disabled, key locks and report dedup are process-local")
	}

	c.repos = newRepositories(c.db, c.log)
	infra, err := newInfrastructure(c.cfg, c.redis, c.metrics, c.log)
	if err != nil {
		return err
	}
	c.infra = infra
	return nil
}

// initRedis creates and tests the Redis client connection.
func initRedis(cfg *config.Config, log logger.Interface) (*redis.Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Errorw("failed to connect to Redis", "addr", cfg.Redis.GetAddr(), "error", err)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Infow("Redis connection established successfully")

	return redisClient, nil
}

// Engine returns the gin engine with all routes registered.
func (c *Container) Engine() *gin.Engine {
	return c.engine
}

// StartScheduler registers the periodic sweeps and starts them.
func (c *Container) StartScheduler() error {
	manager, err := scheduler.NewSchedulerManager(c.cfg.Scheduler, c.metrics, c.log.Named("scheduler"))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := manager.RegisterAll(c.Jobs(), c.cfg.Violation.CheckInterval); err != nil {
		return err
	}
	manager.Start()
	c.schedulerManager = manager
	return nil
}

// Jobs adapts the sweep use cases to scheduler jobs.
func (c *Container) Jobs() scheduler.Jobs {
	return scheduler.Jobs{
		ExpireKeys:    c.ucs.expireKeys,
		ExpireBatches: c.ucs.expireBatches,
		CheckConnections: scheduler.JobFunc(func(ctx context.Context) (int, error) {
			res, err := c.ucs.checkConnections.Execute(ctx)
			return res.Violations, err
		}),
		RetryNotifications: c.ucs.retryNotifications,
		ReconcileServers: scheduler.JobFunc(func(ctx context.Context) (int, error) {
			res, err := c.ucs.reconcileServers.Execute(ctx)
			return res.ServersConfigured + res.PanelsConfigured, err
		}),
	}
}

// Shutdown stops background work and releases connections. The database is
// closed by the caller that opened it.
func (c *Container) Shutdown() error {
	var errs []error
	if c.schedulerManager != nil {
		if err := c.schedulerManager.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

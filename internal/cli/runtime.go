package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/flowkit"
	"github.com/aretw0/flowkit/internal/config"
	"github.com/aretw0/flowkit/internal/metrics"
	"github.com/aretw0/flowkit/internal/tracing"
	"github.com/aretw0/flowkit/pkg/adapters/memory"
	"github.com/aretw0/flowkit/pkg/adapters/postgres"
	"github.com/aretw0/flowkit/pkg/adapters/process"
	"github.com/aretw0/flowkit/pkg/adapters/redis"
	"github.com/aretw0/flowkit/pkg/model"
	"github.com/aretw0/flowkit/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// Runtime bundles what the commands share: resolved config, logger, metrics and the Kit.
type Runtime struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	Kit     *flowkit.Kit

	redis   *backend.Client
	closers []func(context.Context)
}

// NewRuntime builds the Kit for cfg. The flow comes from Redis when redis.flow_id is set,
// from Postgres when postgres.dsn is set, and from cfg.Flow otherwise.
func NewRuntime(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...flowkit.Option) (*Runtime, error) {
	rt := &Runtime{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
	}

	if cfg.Tracing.Enabled {
		if err := rt.initTracing(); err != nil {
			return nil, err
		}
	}

	loader, label, err := rt.loader(ctx)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}

	kitOpts := []flowkit.Option{
		flowkit.WithLogger(logger),
		flowkit.WithMetrics(rt.Metrics),
	}
	if loader != nil {
		kitOpts = append(kitOpts, flowkit.WithLoader(loader))
	}
	kitOpts = append(kitOpts, opts...)

	rt.Kit, err = flowkit.New(label, kitOpts...)
	if err != nil {
		rt.Close(ctx)
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) loader(ctx context.Context) (ports.FlowLoader, string, error) {
	cfg := rt.Config
	switch {
	case cfg.Redis.FlowID != "":
		client, err := rt.redisClient()
		if err != nil {
			return nil, "", err
		}
		rt.Logger.Debug("Loading flow from Redis", "flow_id", cfg.Redis.FlowID)
		return redis.NewFromClient(client, cfg.Redis.FlowID, redis.WithPrefix(cfg.Redis.KeyPrefix)), cfg.Redis.FlowID, nil

	case cfg.Postgres.DSN != "":
		loader, pool, err := postgres.Open(ctx, cfg.Postgres.DSN, cfg.Postgres.FlowID)
		if err != nil {
			return nil, "", err
		}
		rt.closers = append(rt.closers, func(context.Context) { pool.Close() })
		rt.Logger.Debug("Loading flow from Postgres", "flow_id", cfg.Postgres.FlowID)
		return loader, cfg.Postgres.FlowID, nil

	default:
		return nil, cfg.Flow, nil
	}
}

func (rt *Runtime) redisClient() (*backend.Client, error) {
	if rt.redis != nil {
		return rt.redis, nil
	}
	if rt.Config.Redis.Addr == "" {
		return nil, fmt.Errorf("redis.addr is required")
	}
	client, err := redis.NewClient(rt.Config.Redis.Addr)
	if err != nil {
		return nil, err
	}
	rt.redis = client
	rt.closers = append(rt.closers, func(context.Context) { _ = client.Close() })
	return client, nil
}

// Locker returns the lock used to serialize callbacks: Redis when redis.addr is set,
// in-process otherwise.
func (rt *Runtime) Locker() (ports.DistributedLocker, error) {
	if rt.Config.Redis.Addr == "" {
		return memory.NewLocker(), nil
	}
	client, err := rt.redisClient()
	if err != nil {
		return nil, err
	}
	return redis.NewLocker(client, rt.Config.Redis.KeyPrefix), nil
}

// HookTimeout bounds each hook process.
const HookTimeout = 30 * time.Second

// NewHost creates the host callbacks for m, forwarding to the configured hooks if any.
func (rt *Runtime) NewHost(m *model.Model, logger *slog.Logger) (*Host, error) {
	hooks := rt.Config.Hooks
	if hooks.Empty() && rt.Config.HooksFile != "" {
		var err error
		hooks, err = process.LoadHooks(rt.Config.HooksFile)
		if err != nil {
			return nil, err
		}
	}
	if hooks.Empty() {
		return NewHost(m, logger), nil
	}

	runner := process.NewRunner(hooks, process.WithTimeout(HookTimeout), process.WithLogger(logger))
	logger.Info("Forwarding callbacks to hooks",
		"transition", hooks.Transition != nil, "collect", hooks.Collect != nil)
	return NewHost(m, logger, WithForward(runner, runner)), nil
}

func (rt *Runtime) initTracing() error {
	var w io.Writer
	switch out := rt.Config.Tracing.Output; out {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open trace output: %w", err)
		}
		rt.closers = append(rt.closers, func(context.Context) { _ = f.Close() })
		w = f
	}
	if err := tracing.Init("flowkit", flowkit.Version, w); err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	rt.closers = append(rt.closers, func(ctx context.Context) {
		if err := tracing.Shutdown(ctx); err != nil {
			rt.Logger.Warn("Tracing shutdown failed", "err", err)
		}
	})
	return nil
}

// Close releases connections and flushes traces, most recent first.
func (rt *Runtime) Close(ctx context.Context) {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i](ctx)
	}
	rt.closers = nil
}

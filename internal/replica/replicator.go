package replica

import (
	"context"
	"log/slog"
	"time"

	"identity-manager/internal/account/models"
	"identity-manager/internal/platform/config"
	"identity-manager/internal/platform/metrics"
)

// AccountSource snapshots the registry for replication.
type AccountSource interface {
	AllAccounts(ctx context.Context) ([]models.Account, error)
}

// Sweeper is periodic housekeeping piggybacked on the heartbeat, such as
// expiring idle pub/sub topics.
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// Replicator is the heartbeat worker. Each tick it sweeps and pushes the
// full account snapshot to the replica. The period comes from the runtime
// configuration, in seconds, and is re-read every cycle so configure takes
// effect without a restart.
type Replicator struct {
	source  AccountSource
	replica ReplicaPort
	runtime *config.Runtime
	sweeper Sweeper
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewReplicator(
	source AccountSource,
	replicaPort ReplicaPort,
	runtime *config.Runtime,
	sweeper Sweeper,
	m *metrics.Metrics,
	log *slog.Logger,
) *Replicator {
	return &Replicator{
		source:  source,
		replica: replicaPort,
		runtime: runtime,
		sweeper: sweeper,
		metrics: m,
		log:     log,
	}
}

// idlePoll is how often a disabled heartbeat re-checks the configuration.
const idlePoll = time.Second

func (r *Replicator) Run(ctx context.Context) error {
	for {
		cfg := r.runtime.Snapshot()
		wait := idlePoll
		if cfg.HeartbeatEnabled() {
			wait = time.Duration(cfg.HeartbeatPeriod) * time.Second
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		if !cfg.HeartbeatEnabled() {
			continue
		}
		r.tick(ctx)
	}
}

func (r *Replicator) tick(ctx context.Context) {
	r.metrics.HeartbeatTicks.Inc()
	if r.sweeper != nil {
		r.sweeper.Sweep(ctx)
	}
	if r.replica == nil {
		return
	}
	accounts, err := r.source.AllAccounts(ctx)
	if err != nil {
		r.log.ErrorContext(ctx, "snapshot accounts", "error", err.Error())
		return
	}
	if err := r.replica.PushSnapshot(ctx, accounts); err != nil {
		r.log.ErrorContext(ctx, "push snapshot", "accounts", len(accounts), "error", err.Error())
		return
	}
	r.log.DebugContext(ctx, "snapshot replicated", "accounts", len(accounts))
}

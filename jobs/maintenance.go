package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// purgeRetention is how long soft-deleted rows are kept before the nightly
// purge removes them for good.
const purgeRetention = 90 * 24 * time.Hour

// idempotencyRetention bounds the idempotency key table.
const idempotencyRetention = 7 * 24 * time.Hour

// purgedTables lists every table carrying the soft-delete envelope.
// Transactions are excluded: the ledger is append-only and reversal rows
// must survive for audit.
var purgedTables = []string{
	"documents",
	"payments_received",
	"customers",
	"vendors",
	"taxes",
	"accounts",
	"projects",
	"branches",
	"users",
}

// PurgeJob removes expired soft-deleted rows and stale idempotency keys.
type PurgeJob struct {
	pool        *pgxpool.Pool
	idempotency *shared.IdempotencyStore
	logger      *slog.Logger
	metrics     *jobmetrics.Metrics
}

// NewPurgeJob constructs the job.
func NewPurgeJob(pool *pgxpool.Pool, idempotency *shared.IdempotencyStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *PurgeJob {
	if metrics == nil {
		metrics = jobmetrics.NewMetrics(nil)
	}
	return &PurgeJob{pool: pool, idempotency: idempotency, logger: logger, metrics: metrics}
}

// Handler adapts the job to an Asynq task handler.
func (j *PurgeJob) Handler() asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		return j.Run(ctx)
	}
}

// Run executes one purge pass.
func (j *PurgeJob) Run(ctx context.Context) error {
	tracker := j.metrics.Track("retention_purge")
	err := j.run(ctx)
	return tracker.End(err)
}

func (j *PurgeJob) run(ctx context.Context) error {
	cutoff := time.Now().Add(-purgeRetention)

	for _, table := range purgedTables {
		tag, err := j.pool.Exec(ctx,
			`DELETE FROM `+table+` WHERE is_deleted AND deleted_at < $1`, cutoff)
		if err != nil {
			j.logger.Error("purge table", slog.String("table", table), slog.Any("error", err))
			return err
		}
		if tag.RowsAffected() > 0 {
			j.metrics.AddPurged(table, tag.RowsAffected())
			j.logger.Info("purged soft-deleted rows",
				slog.String("table", table), slog.Int64("rows", tag.RowsAffected()))
		}
	}

	if err := j.idempotency.Cleanup(ctx, idempotencyRetention); err != nil {
		j.logger.Error("purge idempotency keys", slog.Any("error", err))
		return err
	}
	return nil
}

package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentprobe/talentprobe-backend/internal/config"
	"github.com/talentprobe/talentprobe-backend/internal/model"
)

const (
	EventBatchSize    = 50
	EventBatchTimeout = 2 * time.Second
	EventPollTimeout  = 1 * time.Second
)

// SessionEventWorker drains the session event queue and persists events
// as an audit trail. Events are best-effort and never feed back into
// lifecycle decisions, so the worker can batch freely.
type SessionEventWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewSessionEventWorker creates a new SessionEventWorker.
func NewSessionEventWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SessionEventWorker {
	return &SessionEventWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "session_event_worker").Logger(),
	}
}

// Start runs the worker loop until ctx is cancelled. Events are flushed
// once the batch fills or the batch timeout elapses, whichever first.
func (w *SessionEventWorker) Start(ctx context.Context) {
	w.log.Info().Msg("SessionEventWorker started")

	batch := make([]*model.SessionEvent, 0, EventBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= EventBatchSize || time.Since(lastFlush) >= EventBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, EventPollTimeout, config.WorkerKey.SessionEventsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var ev model.SessionEvent
			if err := json.Unmarshal([]byte(item[1]), &ev); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &ev)
		}
	}
}

// flushSafe persists a batch, falling back to row-by-row inserts with
// requeue on failure so no event is silently dropped.
func (w *SessionEventWorker) flushSafe(ctx context.Context, batch []*model.SessionEvent) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk event insert failed, using fallback")

		for _, ev := range batch {
			if err := w.insertSingle(ctx, ev); err != nil {
				w.log.Error().Err(err).Msg("insertSingle failed, requeueing")
				raw, _ := json.Marshal(ev)
				w.rdb.RPush(ctx, config.WorkerKey.SessionEventsQueue, raw)
			}
		}
	}
}

// bulkInsert writes the whole batch in one round trip using UNNEST.
func (w *SessionEventWorker) bulkInsert(ctx context.Context, batch []*model.SessionEvent) error {
	n := len(batch)

	orgIDs := make([]int64, 0, n)
	sessionIDs := make([]int64, 0, n)
	testIDs := make([]int64, 0, n)
	types := make([]string, 0, n)
	percents := make([]*int, 0, n)
	occurredAts := make([]time.Time, 0, n)

	for _, ev := range batch {
		orgIDs = append(orgIDs, ev.OrganizationID)
		sessionIDs = append(sessionIDs, ev.SessionID)
		testIDs = append(testIDs, ev.TestID)
		types = append(types, string(ev.Type))
		percents = append(percents, ev.PercentScore)
		occurredAts = append(occurredAts, ev.OccurredAt)
	}

	query := `
		INSERT INTO session_events
			(organization_id, session_id, test_id, event_type, percent_score, occurred_at)
		SELECT u.* FROM UNNEST(
			$1::bigint[],
			$2::bigint[],
			$3::bigint[],
			$4::text[],
			$5::int[],
			$6::timestamptz[]
		) AS u (organization_id, session_id, test_id, event_type, percent_score, occurred_at)
	`

	_, err := w.pool.Exec(ctx, query, orgIDs, sessionIDs, testIDs, types, percents, occurredAts)
	return err
}

func (w *SessionEventWorker) insertSingle(ctx context.Context, ev *model.SessionEvent) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO session_events
			(organization_id, session_id, test_id, event_type, percent_score, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.OrganizationID, ev.SessionID, ev.TestID, string(ev.Type), ev.PercentScore, ev.OccurredAt,
	)
	return err
}

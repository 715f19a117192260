package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/talentprobe/talentprobe-backend/internal/config"
	"github.com/talentprobe/talentprobe-backend/internal/model"
)

// pushSessionEvent queues a lifecycle event for the audit worker and
// broadcasts it on the test's monitor channel. Events are best-effort:
// a Redis failure is logged, never surfaced to the caller, because the
// lifecycle transition has already been persisted.
func pushSessionEvent(ctx context.Context, rdb *redis.Client, log zerolog.Logger, ev model.SessionEvent) {
	if rdb == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal session event")
		return
	}

	if err := rdb.LPush(ctx, config.WorkerKey.SessionEventsQueue, payload).Err(); err != nil {
		log.Warn().Err(err).
			Int64("session_id", ev.SessionID).
			Str("type", string(ev.Type)).
			Msg("failed to queue session event")
	}

	if err := rdb.Publish(ctx, config.CacheKey.TestMonitorChannel(ev.TestID), payload).Err(); err != nil {
		log.Warn().Err(err).
			Int64("test_id", ev.TestID).
			Msg("failed to publish monitor event")
	}
}

package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

const anomalyTTL = 24 * time.Hour

// AnomalyMarker remembers which anomalous votes were already reported so a
// recompute on every change does not repeat the warning.
// Key format: anomaly:<session_id>:<voter_id>
type AnomalyMarker struct {
	client *redis.Client
}

var _ ports.AnomalyReporter = (*AnomalyMarker)(nil)

// NewAnomalyMarker creates an AnomalyMarker wrapping the given Redis client.
func NewAnomalyMarker(client *redis.Client) *AnomalyMarker {
	return &AnomalyMarker{client: client}
}

// FirstReport marks (sessionID, voterID) and reports whether it was unmarked.
func (d *AnomalyMarker) FirstReport(ctx context.Context, sessionID, voterID string) (bool, error) {
	ok, err := d.client.SetNX(ctx, d.key(sessionID, voterID), "1", anomalyTTL).Result()
	if err != nil {
		return false, fmt.Errorf("anomaly mark: %w", err)
	}
	return ok, nil
}

func (d *AnomalyMarker) key(sessionID, voterID string) string {
	return fmt.Sprintf("anomaly:%s:%s", sessionID, voterID)
}

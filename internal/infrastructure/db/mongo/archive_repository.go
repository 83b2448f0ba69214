package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/its-hmtu/vote-dashboard/internal/core/domain"
	"github.com/its-hmtu/vote-dashboard/internal/core/ports"
)

const (
	collectionLifecycleEvents = "lifecycle_events"
	collectionSessionResults  = "session_results"
)

// ArchiveRepository implements ports.ArchiveRepository using MongoDB.
type ArchiveRepository struct {
	events  *mongo.Collection
	results *mongo.Collection
}

var _ ports.ArchiveRepository = (*ArchiveRepository)(nil)

// NewArchiveRepository creates a new ArchiveRepository.
func NewArchiveRepository(db *mongo.Database) *ArchiveRepository {
	return &ArchiveRepository{
		events:  db.Collection(collectionLifecycleEvents),
		results: db.Collection(collectionSessionResults),
	}
}

// InsertLifecycleEvent persists a transition to the lifecycle_events audit collection.
func (r *ArchiveRepository) InsertLifecycleEvent(ctx context.Context, ev *domain.LifecycleEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.events.InsertOne(ctx, eventDocument(ev, time.Now()))
	return err
}

// SaveResult upserts the frozen result of a stopped session.
func (r *ArchiveRepository) SaveResult(ctx context.Context, res *domain.SessionResult) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"session_id": res.SessionID}
	_, err := r.results.ReplaceOne(ctx, filter, resultDocument(res), options.Replace().SetUpsert(true))
	return err
}

// DeleteSession removes the archived result. Audit events are kept.
func (r *ArchiveRepository) DeleteSession(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.results.DeleteOne(ctx, bson.M{"session_id": sessionID})
	return err
}

// EnsureIndexes creates necessary indexes on the archive collections.
func (r *ArchiveRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := r.results.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}

	_, err := r.events.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}}},
		{Keys: bson.D{{Key: "at", Value: -1}}},
	})
	return err
}

func eventDocument(ev *domain.LifecycleEvent, recordedAt time.Time) bson.M {
	doc := bson.M{
		"session_id":  ev.SessionID,
		"kind":        string(ev.Kind),
		"at":          ev.At.UTC(),
		"recorded_at": recordedAt.UTC(),
	}
	if ev.Reason != "" {
		doc["reason"] = string(ev.Reason)
	}
	return doc
}

func resultDocument(res *domain.SessionResult) bson.M {
	candidates := make(bson.A, 0, len(res.Tally.Candidates))
	for _, c := range res.Tally.Candidates {
		candidates = append(candidates, bson.M{
			"candidate_id": c.CandidateID,
			"letter":       c.Letter,
			"votes":        c.Votes,
		})
	}
	anomalies := make(bson.A, 0, len(res.Tally.Anomalies))
	for _, a := range res.Tally.Anomalies {
		anomalies = append(anomalies, bson.M{
			"voter_id":     a.VoterID,
			"candidate_id": a.CandidateID,
		})
	}
	nonVoted := res.NonVotedUserIDs
	if nonVoted == nil {
		nonVoted = []string{}
	}

	return bson.M{
		"session_id":       res.SessionID,
		"start_time":       res.StartTime.UTC(),
		"end_time":         res.EndTime.UTC(),
		"duration_seconds": res.DurationSeconds,
		"stop_reason":      string(res.StopReason),
		"candidates":       candidates,
		"anomalies":        anomalies,
		"total_votes":      res.Tally.Total,
		"not_voted":        nonVoted,
		"late_votes":       res.LateVotes,
	}
}

package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reportd/internal/report"
)

const reportsCollection = "reports"

// ReportStore persists weekly reports scoped to their owner. Every query
// is filtered by created_by so one user can never read or write another
// user's reports.
type ReportStore struct {
	store  *Store
	logger *zap.Logger
}

// Upsert saves a report keyed by (report id, owner). When the report id
// already exists under a different owner, the write is refused with
// ErrNotOwner. The document is normalized before persisting so derived
// fields are always consistent.
func (rs *ReportStore) Upsert(ctx context.Context, r *report.WeeklyReport) error {
	coll, err := rs.store.collection(reportsCollection)
	if err != nil {
		return err
	}

	var existing report.WeeklyReport
	err = coll.FindOne(ctx, bson.M{"report_id": r.ID}).Decode(&existing)
	switch {
	case err == nil:
		if existing.CreatedBy != r.CreatedBy {
			return ErrNotOwner
		}
		// Publisher is recorded once and never cleared by later edits.
		if existing.PublishedBy != "" {
			r.PublishedBy = existing.PublishedBy
		}
		r.CreatedAt = existing.CreatedAt
	case err == mongo.ErrNoDocuments:
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
	default:
		return fmt.Errorf("lookup report %s: %w", r.ID, err)
	}

	r.Normalize()
	r.UpdatedAt = time.Now().UTC()

	filter := bson.M{"report_id": r.ID, "created_by": r.CreatedBy}
	_, err = coll.ReplaceOne(ctx, filter, r, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrNotOwner
		}
		return fmt.Errorf("upsert report %s: %w", r.ID, err)
	}

	rs.logger.Info("saved report",
		zap.String("report_id", r.ID),
		zap.String("owner", r.CreatedBy),
		zap.String("status", string(r.Status)))
	return nil
}

// ListByOwner returns the caller's reports, most recently updated first.
func (rs *ReportStore) ListByOwner(ctx context.Context, ownerID string) ([]report.WeeklyReport, error) {
	coll, err := rs.store.collection(reportsCollection)
	if err != nil {
		return nil, err
	}

	cur, err := coll.Find(ctx,
		bson.M{"created_by": ownerID},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list reports for %s: %w", ownerID, err)
	}
	defer cur.Close(ctx)

	var out []report.WeeklyReport
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode reports for %s: %w", ownerID, err)
	}
	return out, nil
}

// Get returns one report owned by the caller.
func (rs *ReportStore) Get(ctx context.Context, id, ownerID string) (*report.WeeklyReport, error) {
	coll, err := rs.store.collection(reportsCollection)
	if err != nil {
		return nil, err
	}

	var r report.WeeklyReport
	err = coll.FindOne(ctx, bson.M{"report_id": id, "created_by": ownerID}).Decode(&r)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}
	return &r, nil
}

// Delete removes one report owned by the caller.
func (rs *ReportStore) Delete(ctx context.Context, id, ownerID string) error {
	coll, err := rs.store.collection(reportsCollection)
	if err != nil {
		return err
	}

	res, err := coll.DeleteOne(ctx, bson.M{"report_id": id, "created_by": ownerID})
	if err != nil {
		return fmt.Errorf("delete report %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	rs.logger.Info("deleted report", zap.String("report_id", id), zap.String("owner", ownerID))
	return nil
}

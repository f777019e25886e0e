// Package metricsstore computes inquiry totals for dashboards and gauges.
package metricsstore

import (
	"context"

	"github.com/dalemusser/swarmhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of inquiry totals exported as gauges.
type Counts struct {
	ByStatus     map[models.InquiryStatus]int64
	Unowned      int64
	NeedsGeocode int64
}

func newCounts() Counts {
	c := Counts{ByStatus: make(map[models.InquiryStatus]int64, len(models.Statuses))}
	for _, s := range models.Statuses {
		c.ByStatus[s] = 0
	}
	return c
}

// FetchInquiryCounts returns the totals from MongoDB.
// Intentionally tolerant: on error it returns 0 for that counter.
func FetchInquiryCounts(ctx context.Context, db *mongo.Database) Counts {
	out := newCounts()
	coll := db.Collection("inquiries")

	cur, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err == nil {
		var rows []struct {
			Status models.InquiryStatus `bson:"_id"`
			N      int64                `bson:"n"`
		}
		if cur.All(ctx, &rows) == nil {
			for _, r := range rows {
				if r.Status.Valid() {
					out.ByStatus[r.Status] = r.N
				}
			}
		}
	}

	if n, err := coll.CountDocuments(ctx, bson.M{"coordinator_id": bson.M{"$in": bson.A{nil, ""}}}); err == nil {
		out.Unowned = n
	}
	if n, err := coll.CountDocuments(ctx, bson.M{"needs_geocode": true}); err == nil {
		out.NeedsGeocode = n
	}
	return out
}

// CountInquiries computes the same totals over an in-memory listing.
func CountInquiries(qs []models.Inquiry) Counts {
	out := newCounts()
	for _, q := range qs {
		if q.Status.Valid() {
			out.ByStatus[q.Status]++
		}
		if _, owned := q.Owner(); !owned {
			out.Unowned++
		}
		if q.NeedsGeocode {
			out.NeedsGeocode++
		}
	}
	return out
}

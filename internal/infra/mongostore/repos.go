package mongostore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jose-valero/upi-rooms-bot/internal/domain"
)

// TempChannelTTL igual que en Postgres: el índice TTL de expires_at limpia solo.
const TempChannelTTL = 2 * time.Hour

type ProfileRepo struct{ col *mongo.Collection }

func (r *ProfileRepo) Upsert(ctx context.Context, p domain.UPIProfile) error {
	d := toProfileDoc(p)
	_, err := r.col.UpdateOne(ctx, bson.M{"user_id": d.UserID}, profileUpdate(d), options.Update().SetUpsert(true))
	return errors.Wrap(err, "ProfileRepo.Upsert")
}

// profileUpdate: deleted sólo al crear; un re-save no toca el soft delete.
func profileUpdate(d profileDoc) bson.M {
	return bson.M{
		"$set": bson.M{
			"upi_id":       d.UPIID,
			"name":         d.Name,
			"note":         d.Note,
			"encrypted":    d.Encrypted,
			"usage_count":  d.UsageCount,
			"created_at":   d.CreatedAt,
			"last_updated": d.LastUpdated,
		},
		"$setOnInsert": bson.M{"deleted": false},
	}
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (domain.UPIProfile, error) {
	var d profileDoc
	err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.UPIProfile{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.UPIProfile{}, errors.Wrap(err, "ProfileRepo.Get")
	}
	return d.toDomain(), nil
}

func (r *ProfileRepo) Delete(ctx context.Context, userID string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return false, errors.Wrap(err, "ProfileRepo.Delete")
	}
	return res.DeletedCount > 0, nil
}

func (r *ProfileRepo) SoftDelete(ctx context.Context, userID string, at time.Time) (bool, error) {
	res, err := r.col.UpdateOne(ctx, bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"deleted": true, "deleted_at": at.UTC()}})
	if err != nil {
		return false, errors.Wrap(err, "ProfileRepo.SoftDelete")
	}
	return res.MatchedCount > 0, nil
}

func (r *ProfileRepo) CountActive(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"deleted": bson.M{"$ne": true}})
	return n, errors.Wrap(err, "ProfileRepo.CountActive")
}

type AnalyticsRepo struct{ col *mongo.Collection }

func (r *AnalyticsRepo) Insert(ctx context.Context, e domain.AnalyticsEvent) error {
	_, err := r.col.InsertOne(ctx, toEventDoc(e))
	return errors.Wrap(err, "AnalyticsRepo.Insert")
}

func (r *AnalyticsRepo) Count(ctx context.Context, eventType, userID string) (int64, error) {
	n, err := r.col.CountDocuments(ctx, countFilter(eventType, userID))
	return n, errors.Wrap(err, "AnalyticsRepo.Count")
}

func countFilter(eventType, userID string) bson.M {
	f := bson.M{"event_type": eventType}
	if userID != "" {
		f["user_id"] = userID
	}
	return f
}

func (r *AnalyticsRepo) CountByType(ctx context.Context, userID string, since time.Time) (map[string]int64, error) {
	cur, err := r.col.Aggregate(ctx, byTypePipeline(userID, since))
	if err != nil {
		return nil, errors.Wrap(err, "AnalyticsRepo.CountByType")
	}
	defer cur.Close(ctx)

	out := map[string]int64{}
	for cur.Next(ctx) {
		var row struct {
			Type  string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, errors.Wrap(err, "AnalyticsRepo.CountByType: decode")
		}
		out[row.Type] = row.Count
	}
	return out, errors.Wrap(cur.Err(), "AnalyticsRepo.CountByType: cursor")
}

func byTypePipeline(userID string, since time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID, "timestamp": bson.M{"$gte": since.UTC()}}}},
		{{Key: "$group", Value: bson.M{"_id": "$event_type", "count": bson.M{"$sum": 1}}}},
	}
}

func (r *AnalyticsRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": before.UTC()}})
	if err != nil {
		return 0, errors.Wrap(err, "AnalyticsRepo.DeleteBefore")
	}
	return res.DeletedCount, nil
}

type TempChannelRepo struct{ col *mongo.Collection }

func (r *TempChannelRepo) Record(ctx context.Context, tc domain.TempChannel) error {
	d := toTempChannelDoc(tc, TempChannelTTL)
	_, err := r.col.ReplaceOne(ctx, bson.M{"channel_id": d.ChannelID}, d, options.Replace().SetUpsert(true))
	return errors.Wrap(err, "TempChannelRepo.Record")
}

func (r *TempChannelRepo) Remove(ctx context.Context, channelIDs ...string) error {
	if len(channelIDs) == 0 {
		return nil
	}
	_, err := r.col.DeleteMany(ctx, bson.M{"channel_id": bson.M{"$in": channelIDs}})
	return errors.Wrap(err, "TempChannelRepo.Remove")
}

func (r *TempChannelRepo) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{"expires_at": bson.M{"$gt": time.Now().UTC()}})
	return n, errors.Wrap(err, "TempChannelRepo.Count")
}

func (r *TempChannelRepo) PruneBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": before.UTC()}})
	if err != nil {
		return 0, errors.Wrap(err, "TempChannelRepo.PruneBefore")
	}
	return res.DeletedCount, nil
}

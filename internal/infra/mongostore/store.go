// Package mongostore es el backend alternativo sobre MongoDB (MONGO_URI).
// Implementa los mismos puertos que storage (Postgres).
package mongostore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const (
	colUsers        = "users"
	colAnalytics    = "analytics"
	colTempChannels = "temp_channels"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

// Open conecta, hace ping al primario y asegura índices.
// analyticsTTL > 0 agrega un índice TTL sobre analytics.timestamp.
func Open(ctx context.Context, uri, dbName string, analyticsTTL time.Duration, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri).
		SetMaxPoolSize(50).
		SetServerSelectionTimeout(10 * time.Second).
		SetRetryReads(true).
		SetRetryWrites(true).
		SetReadPreference(readpref.Primary())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "mongostore.Open: connect")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "mongostore.Open: ping")
	}

	s := &Store{client: client, db: client.Database(dbName), log: log}
	if err := s.ensureIndexes(ctx, analyticsTTL); err != nil {
		// no bloquea el arranque
		log.Warn("mongo index creation had errors", zap.Error(err))
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context, analyticsTTL time.Duration) error {
	type indexDef struct {
		collection string
		model      mongo.IndexModel
	}
	defs := []indexDef{
		{colUsers, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{colUsers, mongo.IndexModel{Keys: bson.D{{Key: "upi_id", Value: 1}}}},
		{colAnalytics, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "event_type", Value: 1}}}},
		{colTempChannels, mongo.IndexModel{Keys: bson.D{{Key: "channel_id", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{colTempChannels, mongo.IndexModel{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)}},
	}
	ts := mongo.IndexModel{Keys: bson.D{{Key: "timestamp", Value: 1}}}
	if analyticsTTL > 0 {
		ts.Options = options.Index().SetExpireAfterSeconds(int32(analyticsTTL / time.Second))
	}
	defs = append(defs, indexDef{colAnalytics, ts})

	var firstErr error
	for _, d := range defs {
		if _, err := s.db.Collection(d.collection).Indexes().CreateOne(ctx, d.model); err != nil {
			s.log.Warn("create index", zap.String("collection", d.collection), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return errors.Wrap(s.client.Ping(ctx, readpref.Primary()), "mongostore.Ping")
}

// SizeMB usa dbStats.dataSize.
func (s *Store) SizeMB(ctx context.Context) (float64, error) {
	var stats struct {
		DataSize float64 `bson:"dataSize"`
	}
	if err := s.db.RunCommand(ctx, bson.D{{Key: "dbStats", Value: 1}}).Decode(&stats); err != nil {
		return 0, errors.Wrap(err, "mongostore.SizeMB")
	}
	return stats.DataSize / 1024 / 1024, nil
}

func (s *Store) Profiles() *ProfileRepo {
	return &ProfileRepo{col: s.db.Collection(colUsers)}
}

func (s *Store) Analytics() *AnalyticsRepo {
	return &AnalyticsRepo{col: s.db.Collection(colAnalytics)}
}

func (s *Store) TempChannels() *TempChannelRepo {
	return &TempChannelRepo{col: s.db.Collection(colTempChannels)}
}

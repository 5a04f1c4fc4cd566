// Package mongo stores photo records in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/and161185/geocam/internal/errs"
	"github.com/and161185/geocam/internal/model"
	"github.com/and161185/geocam/internal/repository"
)

// Collection is the name photos are stored under.
const Collection = "photos"

// point is a GeoJSON point, present only for geotagged photos.
type point struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"` // [lng, lat]
}

type photoDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	PhotoPath string    `bson:"photo_path"`
	Latitude  *float64  `bson:"latitude"`
	Longitude *float64  `bson:"longitude"`
	Location  *point    `bson:"location,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func toDoc(p *model.Photo) photoDoc {
	d := photoDoc{
		ID:        p.ID.String(),
		UserID:    p.UserID.String(),
		PhotoPath: p.PhotoPath,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		CreatedAt: p.CreatedAt,
	}
	if p.Latitude != nil && p.Longitude != nil {
		d.Location = &point{Type: "Point", Coordinates: []float64{*p.Longitude, *p.Latitude}}
	}
	return d
}

func (d photoDoc) model() (model.Photo, error) {
	id, err := uuid.FromString(d.ID)
	if err != nil {
		return model.Photo{}, fmt.Errorf("photo id %q: %w", d.ID, err)
	}
	uid, err := uuid.FromString(d.UserID)
	if err != nil {
		return model.Photo{}, fmt.Errorf("photo user_id %q: %w", d.UserID, err)
	}
	return model.Photo{
		ID:        id,
		UserID:    uid,
		PhotoPath: d.PhotoPath,
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		CreatedAt: d.CreatedAt,
	}, nil
}

// PhotoRepo implements PhotoRepository over a MongoDB collection.
type PhotoRepo struct {
	col *mongo.Collection
	now func() time.Time
}

var _ repository.PhotoRepository = (*PhotoRepo)(nil)

// NewPhotoRepo wraps col.
func NewPhotoRepo(col *mongo.Collection) *PhotoRepo {
	return &PhotoRepo{col: col, now: time.Now}
}

// Create inserts a photo document.
func (r *PhotoRepo) Create(ctx context.Context, p *model.Photo) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now().UTC().Truncate(time.Millisecond)
	}
	if _, err := r.col.InsertOne(ctx, toDoc(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errs.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// ListByUser returns the newest photos of a user first.
func (r *PhotoRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Photo, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID.String()}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []photoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Photo, 0, len(docs))
	for _, d := range docs {
		p, err := d.model()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Store owns the client connection.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, pings it and ensures the photo indexes exist.
func Connect(ctx context.Context, uri, dbName string, log *zap.Logger) (*Store, error) {
	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	start := time.Now()
	c, err := mongo.Connect(dctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := c.Ping(dctx, nil); err != nil {
		_ = c.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	s := &Store{client: c, db: c.Database(dbName)}
	if err := s.createIndexes(dctx); err != nil {
		log.Warn("mongo index creation", zap.Error(err))
	}
	log.Info("mongo connected", zap.String("db", dbName), zap.Duration("dur", time.Since(start)))
	return s, nil
}

func (s *Store) createIndexes(ctx context.Context) error {
	col := s.db.Collection(Collection)
	var failed []string
	for _, m := range []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}, Options: options.Index().SetSparse(true)},
	} {
		if _, err := col.Indexes().CreateOne(ctx, m); err != nil {
			failed = append(failed, err.Error())
		}
	}
	if len(failed) > 0 {
		return errors.New(strings.Join(failed, "; "))
	}
	return nil
}

// Photos returns the photo repository.
func (s *Store) Photos() *PhotoRepo { return NewPhotoRepo(s.db.Collection(Collection)) }

// Ping checks the server is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx, nil) }

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

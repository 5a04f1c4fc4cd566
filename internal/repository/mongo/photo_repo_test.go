package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/and161185/geocam/internal/errs"
	"github.com/and161185/geocam/internal/model"
)

func ptr(f float64) *float64 { return &f }

func TestPhotoRepo_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("ok", func(mt *mtest.T) {
		r := NewPhotoRepo(mt.Coll)
		fixed := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)
		r.now = func() time.Time { return fixed }
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		p := &model.Photo{
			ID:        uuid.Must(uuid.NewV4()),
			UserID:    uuid.Must(uuid.NewV4()),
			PhotoPath: "file:///c/1.jpg",
			Latitude:  ptr(-23.5),
			Longitude: ptr(-46.6),
		}
		require.NoError(mt, r.Create(context.Background(), p))
		require.Equal(mt, fixed.Truncate(time.Millisecond), p.CreatedAt)
	})

	mt.Run("duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))
		err := NewPhotoRepo(mt.Coll).Create(context.Background(), &model.Photo{ID: uuid.Must(uuid.NewV4())})
		require.ErrorIs(mt, err, errs.ErrAlreadyExists)
	})
}

func TestToDoc_GeoJSONPoint(t *testing.T) {
	d := toDoc(&model.Photo{Latitude: ptr(-23.5), Longitude: ptr(-46.6)})
	require.NotNil(t, d.Location)
	require.Equal(t, "Point", d.Location.Type)
	require.Equal(t, []float64{-46.6, -23.5}, d.Location.Coordinates)
}

func TestToDoc_NoLocationWithoutCoordinates(t *testing.T) {
	d := toDoc(&model.Photo{ID: uuid.Must(uuid.NewV4()), UserID: uuid.Must(uuid.NewV4())})
	require.Nil(t, d.Location)
	require.Nil(t, d.Latitude)

	raw, err := bson.Marshal(d)
	require.NoError(t, err)
	require.Equal(t, bson.TypeNull, bson.Raw(raw).Lookup("latitude").Type)
	_, err = bson.Raw(raw).LookupErr("location")
	require.Error(t, err)
}

func TestPhotoRepo_ListByUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("ok", func(mt *mtest.T) {
		uid := uuid.Must(uuid.NewV4())
		id1, id2 := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		first := mtest.CreateCursorResponse(1, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: id1.String()},
				{Key: "user_id", Value: uid.String()},
				{Key: "photo_path", Value: "p2"},
				{Key: "latitude", Value: 1.5},
				{Key: "longitude", Value: 2.5},
				{Key: "created_at", Value: time.Now()},
			},
		)
		second := mtest.CreateCursorResponse(0, ns, mtest.NextBatch,
			bson.D{
				{Key: "_id", Value: id2.String()},
				{Key: "user_id", Value: uid.String()},
				{Key: "photo_path", Value: "p1"},
				{Key: "latitude", Value: nil},
				{Key: "longitude", Value: nil},
				{Key: "created_at", Value: time.Now().Add(-time.Hour)},
			},
		)
		mt.AddMockResponses(first, second)

		got, err := NewPhotoRepo(mt.Coll).ListByUser(context.Background(), uid, 10)
		require.NoError(mt, err)
		require.Len(mt, got, 2)
		require.Equal(mt, id1, got[0].ID)
		require.Equal(mt, 1.5, *got[0].Latitude)
		require.Nil(mt, got[1].Latitude)
	})

	mt.Run("bad id", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "nope"}, {Key: "user_id", Value: "x"}},
		))
		_, err := NewPhotoRepo(mt.Coll).ListByUser(context.Background(), uuid.Must(uuid.NewV4()), 10)
		require.Error(mt, err)
	})

	mt.Run("server error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad"}))
		_, err := NewPhotoRepo(mt.Coll).ListByUser(context.Background(), uuid.Must(uuid.NewV4()), 10)
		require.Error(mt, err)
		var ce mongo.CommandError
		require.ErrorAs(mt, err, &ce)
	})
}

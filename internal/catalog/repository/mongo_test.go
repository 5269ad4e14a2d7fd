package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudkitchen/cloudkitchen/backend/go-services/internal/catalog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("find decodes nested documents", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		first := mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "service_id", Value: "S1"},
				{Key: "reviewer_info", Value: bson.D{{Key: "userID", Value: "u1"}}},
				{Key: "tags", Value: bson.A{"spicy", bson.D{{Key: "k", Value: "v"}}}},
			},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "service_id", Value: "S1"}},
		)
		mt.AddMockResponses(first)

		out, err := repo.Find(ctx, Query{Equals: map[string]string{catalog.FieldServiceID: "S1"}, SortDesc: catalog.FieldReviewDate, Limit: 5})
		require.NoError(mt, err)
		require.Len(mt, out, 2)
		uid, ok := catalog.Lookup(out[0], catalog.FieldReviewerUserID)
		require.True(mt, ok)
		require.Equal(mt, "u1", uid)
		tags, ok := out[0]["tags"].([]interface{})
		require.True(mt, ok)
		require.Equal(mt, map[string]interface{}{"k": "v"}, tags[1])
	})

	mt.Run("find by id", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "_id", Value: oid}, {Key: "name", Value: "Dal"}}))

		got, err := repo.FindByID(ctx, oid.Hex())
		require.NoError(mt, err)
		require.Equal(mt, "Dal", got["name"])
		require.Equal(mt, oid, got[catalog.FieldID])
	})

	mt.Run("find by id missing", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		got, err := repo.FindByID(ctx, primitive.NewObjectID().Hex())
		require.NoError(mt, err)
		require.Nil(mt, got)
	})

	mt.Run("invalid id never reaches the server", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		_, err := repo.FindByID(ctx, "not-an-id")
		require.ErrorIs(mt, err, ErrInvalidID)
		_, err = repo.Delete(ctx, "zzz")
		require.ErrorIs(mt, err, ErrInvalidID)
	})

	mt.Run("insert assigns object id", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		res, err := repo.Insert(ctx, catalog.Document{"name": "Biryani"})
		require.NoError(mt, err)
		require.True(mt, res.Acknowledged)
		_, ok := res.InsertedID.(primitive.ObjectID)
		require.True(mt, ok)
	})

	mt.Run("insert duplicate key", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}))

		_, err := repo.Insert(ctx, catalog.Document{"name": "Biryani"})
		require.ErrorIs(mt, err, ErrConflict)
	})

	mt.Run("set reports counts", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		res, err := repo.Set(ctx, primitive.NewObjectID().Hex(), catalog.Document{"price": 10})
		require.NoError(mt, err)
		require.EqualValues(mt, 1, res.MatchedCount)
		require.EqualValues(mt, 1, res.ModifiedCount)
	})

	mt.Run("increment rejected", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 14, Name: "TypeMismatch", Message: "Cannot apply $inc to a value of non-numeric type"}))

		_, err := repo.Increment(ctx, primitive.NewObjectID().Hex(), catalog.Document{"helpCount": int64(1)})
		require.ErrorIs(mt, err, ErrRejected)
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		res, err := repo.Delete(ctx, primitive.NewObjectID().Hex())
		require.NoError(mt, err)
		require.True(mt, res.Acknowledged)
		require.Zero(mt, res.DeletedCount)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		repo := NewMongoRepo(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, repo.EnsureIndexes(ctx, catalog.FieldServiceID, catalog.FieldReviewerUserID))
	})
}

func TestClassify(t *testing.T) {
	require.NoError(t, classify(nil))
	require.ErrorIs(t, classify(context.DeadlineExceeded), ErrUnavailable)
	require.ErrorIs(t, classify(mongo.CommandError{Code: 6, Labels: []string{"NetworkError"}}), ErrUnavailable)
	require.ErrorIs(t, classify(mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}), ErrConflict)
	require.ErrorIs(t, classify(mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 121}}}), ErrRejected)
	require.ErrorIs(t, classify(mongo.CommandError{Code: 2, Name: "BadValue"}), ErrRejected)

	err := classify(errors.New("boom"))
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrRejected) || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrConflict))
}

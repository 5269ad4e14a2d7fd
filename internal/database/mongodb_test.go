package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestClientOptions(t *testing.T) {
	opts := ClientOptions("mongodb://localhost:27017")
	require.NoError(t, opts.Validate())
	require.NotNil(t, opts.ServerAPIOptions)
	require.NotNil(t, opts.BSONOptions)
	require.True(t, opts.BSONOptions.DefaultDocumentM)
	require.Equal(t, []string{"localhost:27017"}, opts.Hosts)
}

func TestPing(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("ok", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, Ping(context.Background(), mt.Client))
	})

	mt.Run("failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Name: "Unauthorized", Message: "not authorized"}))
		require.Error(mt, Ping(context.Background(), mt.Client))
	})
}

func TestConnectWithRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ConnectWithRetry(ctx, "mongodb://127.0.0.1:1", 50*time.Millisecond, 3, time.Hour)
	require.Error(t, err)
}

package redisstream

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStream(t *testing.T) *Stream {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return &Stream{Rdb: rdb, Key: "test:events", MaxLen: 100}
}

func TestAppendAndReadInOrder(t *testing.T) {
	s := newStream(t)
	ctx := context.Background()

	id1, err := s.Append(ctx, "hold.placed", map[string]string{"unit_id": "u1"})
	require.NoError(t, err)
	_, err = s.Append(ctx, "lease.confirmed", map[string]string{"unit_id": "u1"})
	require.NoError(t, err)

	all, err := s.Read(ctx, "0", 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "hold.placed", all[0].Type)
	assert.Equal(t, "lease.confirmed", all[1].Type)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(all[0].Payload, &payload))
	assert.Equal(t, "u1", payload["unit_id"])

	rest, err := s.Read(ctx, id1, 10, 0)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "lease.confirmed", rest[0].Type)
}

func TestLatestNewestFirst(t *testing.T) {
	s := newStream(t)
	ctx := context.Background()
	for _, typ := range []string{"a", "b", "c"} {
		_, err := s.Append(ctx, typ, struct{}{})
		require.NoError(t, err)
	}
	latest, err := s.Latest(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "c", latest[0].Type)
	assert.Equal(t, "b", latest[1].Type)
}

func TestNilStreamIsNoop(t *testing.T) {
	var s *Stream
	id, err := s.Append(context.Background(), "x", nil)
	assert.NoError(t, err)
	assert.Empty(t, id)
	msgs, err := (&Stream{}).Read(context.Background(), "", 1, 0)
	assert.NoError(t, err)
	assert.Nil(t, msgs)
}

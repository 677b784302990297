package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/speedview-sync/pkg/model"
)

func TestGetOrCreateOncePerKey(t *testing.T) {
	c := NewEntityCache[int32, model.Meeting]("test")
	calls := 0
	create := func(ctx context.Context, key int32) (*model.Meeting, error) {
		calls++
		return &model.Meeting{MeetingKey: key}, nil
	}
	ctx := context.Background()
	for _, k := range []int32{1219, 1220, 1219, 1219} {
		m, err := c.GetOrCreate(ctx, k, create)
		require.NoError(t, err)
		assert.Equal(t, k, m.MeetingKey)
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, c.Len())
}

func TestGetOrCreateError(t *testing.T) {
	c := NewEntityCache[string, model.Team]("test")
	errDB := errors.New("db down")
	_, err := c.GetOrCreate(context.Background(), "Ferrari",
		func(ctx context.Context, key string) (*model.Team, error) {
			return nil, errDB
		})
	assert.ErrorIs(t, err, errDB)
	_, ok := c.Lookup(context.Background(), "Ferrari")
	assert.False(t, ok)
}

func TestPutReplaces(t *testing.T) {
	s := NewSet()
	ctx := context.Background()
	s.Sessions.Put(ctx, 9161, &model.Session{SessionKey: 9161, MeetingKey: 1})
	s.Sessions.Put(ctx, 9161, &model.Session{SessionKey: 9161, MeetingKey: 2})
	got, ok := s.Sessions.Lookup(ctx, 9161)
	require.True(t, ok)
	assert.Equal(t, int32(2), got.MeetingKey)
	assert.Equal(t, 0, s.Meetings.Len())
}

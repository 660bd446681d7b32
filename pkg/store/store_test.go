package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zeusrx/pkg/message"
	"zeusrx/pkg/receiver"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRecord(at time.Time, last byte) message.Record {
	return message.New(&receiver.Zeus, receiver.Message{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, last}, at)
}

func TestInsertGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := testRecord(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), 0x80)
	require.NoError(t, s.Insert(ctx, r))

	got, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
	assert.True(t, r.Time.Equal(got.Time))
	assert.Equal(t, r.Protocol, got.Protocol)
	assert.Equal(t, r.Message, got.Message)
	assert.Equal(t, r.Data, got.Data)
	assert.Equal(t, uint8(1), got.Parity)

	assert.Error(t, s.Insert(ctx, r), "ids are unique")
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetRepeats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := testRecord(time.Now(), 0)
	require.NoError(t, s.Insert(ctx, r))
	require.NoError(t, s.SetRepeats(ctx, r.ID, 4))

	got, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Repeats)

	assert.ErrorIs(t, s.SetRepeats(ctx, uuid.New(), 1), ErrNotFound)
}

func TestLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		r := testRecord(start.Add(time.Duration(i)*time.Minute), byte(i))
		require.NoError(t, s.Insert(ctx, r))
		ids = append(ids, r.ID)
	}

	got, err := s.Latest(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ids[4], got[0].ID)
	assert.Equal(t, ids[3], got[1].ID)
	assert.Equal(t, ids[2], got[2].ID)

	got, err = s.Latest(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zeusrx.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	r := testRecord(time.Now(), 0)
	require.NoError(t, s.Insert(ctx, r))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Data, got.Data)
}

package settings

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricePerSlotCents(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, 15000, "0000")

	mock.ExpectGet(KeyPricePerSlotCents).SetVal("20000")
	assert.Equal(t, int64(20000), store.PricePerSlotCents(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPricePerSlotCentsFallbacks(t *testing.T) {
	t.Run("key missing", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := NewStore(db, 15000, "0000")
		mock.ExpectGet(KeyPricePerSlotCents).RedisNil()
		assert.Equal(t, int64(15000), store.PricePerSlotCents(context.Background()))
	})
	t.Run("malformed value", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := NewStore(db, 15000, "0000")
		mock.ExpectGet(KeyPricePerSlotCents).SetVal("a lot")
		assert.Equal(t, int64(15000), store.PricePerSlotCents(context.Background()))
	})
	t.Run("nil client", func(t *testing.T) {
		store := NewStore(nil, 15000, "0000")
		assert.Equal(t, int64(15000), store.PricePerSlotCents(context.Background()))
	})
}

func TestAccessCode(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, 15000, "0000")

	mock.ExpectGet(KeyAccessCode).SetVal("4242")
	assert.Equal(t, "4242", store.AccessCode(context.Background()))

	mock.ExpectGet(KeyAccessCode).RedisNil()
	assert.Equal(t, "0000", store.AccessCode(context.Background()))
}

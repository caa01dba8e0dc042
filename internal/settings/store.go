// Package settings reads operator-tunable values (price per slot, room
// access code) from a Redis key/value store.  Reads are best-effort: when
// the client is nil or the key is absent or unreadable, the static
// fallback configured at startup is returned, so a Redis outage never
// blocks a booking.
package settings

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Keys under which the settings live.
const (
	KeyPricePerSlotCents = "settings:price_per_slot_cents"
	KeyAccessCode        = "settings:access_code"
)

// Store is the settings collaborator.  A nil Redis client is legal and
// means every read resolves to its fallback.
type Store struct {
	rdb               *redis.Client
	fallbackPrice     int64
	fallbackAccessKey string
}

// NewStore builds a Store with the given fallback values.
func NewStore(rdb *redis.Client, fallbackPriceCents int64, fallbackAccessCode string) *Store {
	return &Store{
		rdb:               rdb,
		fallbackPrice:     fallbackPriceCents,
		fallbackAccessKey: fallbackAccessCode,
	}
}

// PricePerSlotCents returns the current price of one slot in cents.  The
// value is read fresh on every call; reservations capture it once at
// creation, so later changes never retroactively reprice existing rows.
func (s *Store) PricePerSlotCents(ctx context.Context) int64 {
	raw, ok := s.get(ctx, KeyPricePerSlotCents)
	if !ok {
		return s.fallbackPrice
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		log.Printf("settings: malformed %s value %q, using fallback", KeyPricePerSlotCents, raw)
		return s.fallbackPrice
	}
	return n
}

// AccessCode returns the door code included in confirmation messages.
func (s *Store) AccessCode(ctx context.Context) string {
	raw, ok := s.get(ctx, KeyAccessCode)
	if !ok {
		return s.fallbackAccessKey
	}
	return raw
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	if s.rdb == nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	val, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("settings: read %s failed: %v", key, err)
		}
		return "", false
	}
	return val, true
}

package cache

import (
	"time"

	"brankas/internal/core"
)

// UserPeriodCache holds per-user, per-period views. Any mutation of a user's
// transactions or accounts must call Invalidate for that user.
type UserPeriodCache[T any] struct {
	lru *LRUCache[T]
}

func NewUserPeriodCache[T any](maxSize int, ttl time.Duration) *UserPeriodCache[T] {
	return &UserPeriodCache[T]{lru: NewLRUCache[T](maxSize, ttl)}
}

func userPrefix(userID string) string { return userID + "\x00" }

func periodKey(userID string, p core.Period) string { return userPrefix(userID) + string(p) }

func (c *UserPeriodCache[T]) Get(userID string, p core.Period) (T, bool) {
	return c.lru.Get(periodKey(userID, p))
}

func (c *UserPeriodCache[T]) Set(userID string, p core.Period, v T) {
	c.lru.Set(periodKey(userID, p), v)
}

// Invalidate drops every cached period for userID.
func (c *UserPeriodCache[T]) Invalidate(userID string) {
	c.lru.DeletePrefix(userPrefix(userID))
}

func (c *UserPeriodCache[T]) CleanExpired() int { return c.lru.CleanExpired() }

func (c *UserPeriodCache[T]) Stats() Stats { return c.lru.Stats() }

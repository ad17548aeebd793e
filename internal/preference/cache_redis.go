package preference

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"memoria/internal/visibility"
	id "memoria/pkg/domain"
)

var (
	snapshotCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memoria_preference_snapshot_cache_hits_total",
		Help: "Preference snapshot reads served from Redis",
	})
	snapshotCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memoria_preference_snapshot_cache_misses_total",
		Help: "Preference snapshot reads that fell back to the store",
	})
	snapshotCacheErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memoria_preference_snapshot_cache_errors_total",
		Help: "Redis failures during snapshot reads or writes",
	})
	snapshotLookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "memoria_preference_snapshot_lookup_duration_ms",
		Help:    "Latency of preference snapshot cache lookups in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

const (
	// Redis key prefix for per-person snapshot hashes
	snapshotKeyPrefix = "memoria:pref:"

	// hash field for viewers with no contributor scope
	anonField = "anon"

	defaultSnapshotTTL = 30 * time.Second
)

// Cache keeps resolved preference pairs in a per-person Redis hash so one
// DEL invalidates every viewer's snapshot for that person at once. The
// cache is strictly best-effort: all failures degrade to store reads. A
// nil *Cache is valid and always misses.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache wraps a Redis client as a snapshot cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &Cache{client: client, ttl: ttl}
}

type snapshotPayload struct {
	Contributor string `json:"contributor"`
	Global      string `json:"global"`
}

// Get returns the cached pair and whether it was present. Redis errors
// count as misses so resolution never depends on cache availability.
func (c *Cache) Get(ctx context.Context, personID id.PersonID, contributorID id.ContributorID) (Pair, bool) {
	if c == nil || c.client == nil {
		return Pair{}, false
	}
	start := time.Now()
	defer func() {
		snapshotLookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	raw, err := c.client.HGet(ctx, snapshotKey(personID), fieldFor(contributorID)).Result()
	if errors.Is(err, redis.Nil) {
		snapshotCacheMisses.Inc()
		return Pair{}, false
	}
	if err != nil {
		snapshotCacheErrors.Inc()
		return Pair{}, false
	}

	var payload snapshotPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		snapshotCacheErrors.Inc()
		return Pair{}, false
	}
	snapshotCacheHits.Inc()
	return Pair{
		Contributor: visibility.State(payload.Contributor),
		Global:      visibility.State(payload.Global),
	}, true
}

// Put stores a pair best-effort and refreshes the per-person TTL.
func (c *Cache) Put(ctx context.Context, personID id.PersonID, contributorID id.ContributorID, pair Pair) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(snapshotPayload{
		Contributor: string(pair.Contributor),
		Global:      string(pair.Global),
	})
	if err != nil {
		snapshotCacheErrors.Inc()
		return
	}

	key := snapshotKey(personID)
	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, fieldFor(contributorID), payload)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		snapshotCacheErrors.Inc()
	}
}

// InvalidatePerson drops every cached snapshot for one person.
func (c *Cache) InvalidatePerson(ctx context.Context, personID id.PersonID) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, snapshotKey(personID)).Err(); err != nil {
		snapshotCacheErrors.Inc()
	}
}

func snapshotKey(personID id.PersonID) string {
	return snapshotKeyPrefix + personID.String()
}

func fieldFor(contributorID id.ContributorID) string {
	if contributorID.IsZero() {
		return anonField
	}
	return contributorID.String()
}

package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"contractreview-backend/models"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"golang.org/x/crypto/blake2b"
)

const keyPrefix = "analysis:"

// Entry is a cached analysis with its normalized decisions
type Entry struct {
	Analysis  *models.Analysis            `json:"analysis"`
	Decisions []models.NormalizedDecision `json:"decisions"`
	Clauses   []models.ClauseExtraction   `json:"clauses,omitempty"`
	StoredAt  time.Time                   `json:"stored_at"`
}

// ReportCache stores analyses keyed by contract fingerprint
type ReportCache interface {
	// Get returns nil, nil on a miss
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Delete(ctx context.Context, key string) error
}

type reportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, ttl time.Duration) ReportCache {
	return &reportCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *reportCache) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read cache key %s", key)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, eris.Wrapf(err, "failed to decode cache key %s", key)
	}
	return &entry, nil
}

func (c *reportCache) Set(ctx context.Context, key string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return eris.Wrap(err, "failed to encode cache entry")
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return eris.Wrapf(err, "failed to write cache key %s", key)
	}
	return nil
}

func (c *reportCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return eris.Wrapf(err, "failed to delete cache key %s", key)
	}
	return nil
}

// Fingerprint is the hex BLAKE2b-256 digest of the contract text
func Fingerprint(content string) string {
	sum := blake2b.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Key builds the cache key of one analysis. The report schema version is
// part of the key so a schema change never serves stale shapes.
func Key(reviewType, contractType, solutionKey, fingerprint string) string {
	parts := []string{
		"v" + models.ReportSchemaVersion,
		orDash(reviewType),
		orDash(contractType),
		orDash(solutionKey),
		fingerprint,
	}
	return keyPrefix + strings.Join(parts, ":")
}

func orDash(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "-"
	}
	return s
}

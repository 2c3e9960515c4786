package cache

import (
	"context"
	"testing"
	"time"

	"contractreview-backend/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (ReportCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewReportCache(client, ttl), mr
}

func sampleEntry() *Entry {
	return &Entry{
		Analysis: &models.Analysis{ReviewType: "risk_assessment", ContractType: "nda", Score: 72},
		Decisions: []models.NormalizedDecision{
			{ID: "rec-1", Description: "Cap liability", Severity: models.SeverityHigh},
		},
		Clauses: []models.ClauseExtraction{
			{ID: "clause-1", ClauseID: "parsed-1", Title: "1. Liability", OriginalText: "Liability is capped.", Importance: models.ImportanceHigh, References: []string{}},
		},
		StoredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("This Agreement is between Acme Corp and Globex Inc.")
	assert.Len(t, a, 64)
	assert.Equal(t, a, Fingerprint("This Agreement is between Acme Corp and Globex Inc."))
	assert.NotEqual(t, a, Fingerprint("This Agreement is between Acme Corp and Initech."))
}

func TestKey(t *testing.T) {
	fp := Fingerprint("text")
	assert.Equal(t, "analysis:v2.1:risk_assessment:nda:-:"+fp, Key("risk_assessment", "NDA", "", fp))
	assert.NotEqual(t, Key("risk_assessment", "nda", "", fp), Key("full_summary", "nda", "", fp))
	assert.NotEqual(t, Key("risk_assessment", "nda", "dpa", fp), Key("risk_assessment", "nda", "", fp))
}

func TestReportCacheMiss(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)

	entry, err := c.Get(context.Background(), Key("risk_assessment", "", "", Fingerprint("x")))
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestReportCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Hour)
	key := Key("risk_assessment", "nda", "", Fingerprint("contract"))

	require.NoError(t, c.Set(ctx, key, sampleEntry()))
	assert.Equal(t, time.Hour, mr.TTL(key))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sampleEntry(), got)
}

func TestReportCacheExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)
	key := Key("full_summary", "", "", Fingerprint("contract"))

	require.NoError(t, c.Set(ctx, key, sampleEntry()))
	mr.FastForward(2 * time.Minute)

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReportCacheDelete(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Hour)
	key := Key("risk_assessment", "", "", Fingerprint("contract"))

	require.NoError(t, c.Set(ctx, key, sampleEntry()))
	require.NoError(t, c.Delete(ctx, key))
	assert.False(t, mr.Exists(key))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, c.Delete(ctx, key), "deleting a missing key is not an error")
}

func TestReportCacheCorruptEntry(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	key := Key("risk_assessment", "", "", Fingerprint("contract"))
	require.NoError(t, mr.Set(key, "{not json"))

	got, err := c.Get(context.Background(), key)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "failed to decode cache key")
}

func TestReportCacheServerDown(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Hour)
	mr.Close()

	_, err := c.Get(ctx, "analysis:key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read cache key")

	err = c.Set(ctx, "analysis:key", sampleEntry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to write cache key")

	err = c.Delete(ctx, "analysis:key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete cache key")
}

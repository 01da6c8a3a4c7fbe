package application

import (
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/onrope-scheduler/internal/dateonly"
)

// warningCache keeps recent dry-run conflict results so repeated checks of the
// same candidate skip the store while assignments stay unchanged.
type warningCache struct {
	now     func() time.Time
	ttl     time.Duration
	entries *lru.Cache[string, warningCacheEntry]
}

type warningCacheEntry struct {
	warnings  []ConflictWarning
	expiresAt time.Time
}

func newWarningCache(ttl time.Duration, maxEntries int, now func() time.Time) *warningCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	entries, err := lru.New[string, warningCacheEntry](maxEntries)
	if err != nil {
		panic(err)
	}
	return &warningCache{now: now, ttl: ttl, entries: entries}
}

func (c *warningCache) Get(key string) ([]ConflictWarning, bool) {
	if c == nil {
		return nil, false
	}
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return nil, false
	}
	return cloneWarnings(entry.warnings), true
}

func (c *warningCache) Store(key string, warnings []ConflictWarning) {
	if c == nil {
		return
	}
	c.entries.Add(key, warningCacheEntry{
		warnings:  cloneWarnings(warnings),
		expiresAt: c.now().Add(c.ttl),
	})
}

func (c *warningCache) Invalidate() {
	if c == nil {
		return
	}
	c.entries.Purge()
}

func (c *warningCache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func cloneWarnings(warnings []ConflictWarning) []ConflictWarning {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]ConflictWarning, len(warnings))
	copy(out, warnings)
	return out
}

func buildWarningCacheKey(companyID, assignmentID, projectID string, employeeIDs []string, dates dateonly.Range) string {
	employees := sortStrings(employeeIDs)

	builder := strings.Builder{}
	builder.WriteString(companyID)
	builder.WriteString("|")
	builder.WriteString(assignmentID)
	builder.WriteString("|")
	builder.WriteString(projectID)
	builder.WriteString("|")
	builder.WriteString(strings.Join(employees, ","))
	builder.WriteString("|")
	builder.WriteString(dates.String())
	return builder.String()
}

func sortStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}

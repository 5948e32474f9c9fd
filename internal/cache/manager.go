package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jmorgan/careerpath-coach/internal/types"
)

// Namespace is the key prefix for every cache entry owned by this service.
const Namespace = "careerpath"

// DefaultTTL is the entry lifetime when the configuration does not override it.
const DefaultTTL = 24 * time.Hour

// Entry is the value stored per (goal, missing skills) pair. Entries are
// immutable once written; a refresh writes a new entry under the same key.
type Entry struct {
	CareerGoal     string                `json:"career_goal"`
	MissingSkills  []string              `json:"missing_skills"`
	Courses        []types.Course        `json:"courses"`
	Recommendation *types.Recommendation `json:"recommendations"`
	CreatedAt      time.Time             `json:"created_at"`
	TTL            time.Duration         `json:"ttl"`
}

// Manager wraps a Store with key derivation, entry serialization, and the
// swallow-errors contract: a broken backend degrades to cache misses, it
// never fails a request.
type Manager struct {
	store Store
	ttl   time.Duration
	log   zerolog.Logger
}

// Stats describes the active backend for the diagnostics endpoint.
type Stats struct {
	CacheType string `json:"cache_type"`
	Entries   int    `json:"entries"`
}

// Open selects the cache backend and returns a ready manager. It attempts the
// networked backend first; any construction error falls back to the
// in-process store. Selection happens once — callers hold the returned
// handle for the process lifetime rather than re-probing per request.
func Open(ctx context.Context, redisAddr string, ttl time.Duration, log zerolog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	store, err := NewRedisStore(ctx, redisAddr)
	if err != nil {
		log.Warn().Err(err).Str("addr", redisAddr).
			Msg("redis unavailable, falling back to in-memory cache")
		return NewManager(NewMemoryStore(), ttl, log)
	}

	log.Info().Str("addr", redisAddr).Msg("using redis cache")
	return NewManager(store, ttl, log)
}

// NewManager wraps an explicit store. Tests use this with MemoryStore or a
// failing stub.
func NewManager(store Store, ttl time.Duration, log zerolog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store: store,
		ttl:   ttl,
		log:   log,
	}
}

// DeriveKey computes the cache key for a (goal, skills) pair.
//
// The goal and each skill are trimmed and lowercased, the skills sorted, and
// the canonical parts joined with ":" before hashing with MD5. Identical
// semantic inputs therefore always collide on the same key, regardless of
// skill ordering, casing, or surrounding whitespace. The goal's own digest
// prefix segment keeps all of a goal's entries under a common key prefix so
// invalidation can be scoped per goal.
func (m *Manager) DeriveKey(goal string, skills types.SkillSet) string {
	canonicalGoal := strings.ToLower(strings.TrimSpace(goal))
	parts := append([]string{canonicalGoal}, skills.Canonical()...)

	goalDigest := md5.Sum([]byte(canonicalGoal))
	entryDigest := md5.Sum([]byte(strings.Join(parts, ":")))

	return fmt.Sprintf("%s:%x:%x", Namespace, goalDigest[:4], entryDigest)
}

// goalPattern returns the glob matching every key derived for goal.
func (m *Manager) goalPattern(goal string) string {
	canonicalGoal := strings.ToLower(strings.TrimSpace(goal))
	goalDigest := md5.Sum([]byte(canonicalGoal))
	return fmt.Sprintf("%s:%x:*", Namespace, goalDigest[:4])
}

// namespacePattern matches every key owned by this service.
func namespacePattern() string {
	return Namespace + ":*"
}

// Get looks up the entry for (goal, skills). Store errors and corrupt entries
// are logged and reported as a miss so the caller always has the fetch path
// as fallback.
func (m *Manager) Get(ctx context.Context, goal string, skills types.SkillSet) (*Entry, bool) {
	key := m.DeriveKey(goal, skills)

	value, found, err := m.store.Get(ctx, key)
	if err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("cache get failed, treating as miss")
		return nil, false
	}
	if !found {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(value, &entry); err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("corrupt cache entry, treating as miss")
		return nil, false
	}
	return &entry, true
}

// Put stores a freshly computed entry for (goal, skills). Failures are logged
// and swallowed; the response the entry was built from is still valid.
func (m *Manager) Put(ctx context.Context, goal string, skills types.SkillSet, courses []types.Course, rec *types.Recommendation) {
	entry := Entry{
		CareerGoal:     goal,
		MissingSkills:  skills.Strings(),
		Courses:        courses,
		Recommendation: rec,
		CreatedAt:      time.Now().UTC(),
		TTL:            m.ttl,
	}

	value, err := json.Marshal(entry)
	if err != nil {
		m.log.Warn().Err(err).Msg("cache entry marshal failed, skipping write")
		return
	}

	key := m.DeriveKey(goal, skills)
	if err := m.store.Set(ctx, key, value, m.ttl); err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("cache put failed, continuing without cache")
		return
	}
	m.log.Debug().Str("key", key).Str("goal", goal).Msg("cached course recommendations")
}

// Invalidate deletes cached entries. With a goal it removes only that goal's
// entries; with an empty goal it clears the whole namespace. The count of
// deleted entries is returned; backend errors degrade to zero.
func (m *Manager) Invalidate(ctx context.Context, goal string) int {
	pattern := namespacePattern()
	if goal != "" {
		pattern = m.goalPattern(goal)
	}

	deleted, err := m.store.DeleteMatching(ctx, pattern)
	if err != nil {
		m.log.Warn().Err(err).Str("pattern", pattern).Msg("cache invalidation failed")
	}
	return deleted
}

// Stats reports the active backend and its live entry count.
func (m *Manager) Stats(ctx context.Context) Stats {
	entries, err := m.store.Entries(ctx, namespacePattern())
	if err != nil {
		m.log.Warn().Err(err).Msg("cache stats failed")
	}
	return Stats{
		CacheType: m.store.Kind(),
		Entries:   entries,
	}
}

// Kind exposes the active backend name.
func (m *Manager) Kind() string {
	return m.store.Kind()
}

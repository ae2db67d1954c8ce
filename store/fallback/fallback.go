// Package fallback persists daily study counters on local disk for sessions
// that run unauthenticated or while the primary database is unreachable.
package fallback

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/peterbourgon/diskv/v3"
	"github.com/pkg/errors"
)

// Counts is one date-keyed counter record. A missing record and a zeroed
// record mean the same thing.
type Counts struct {
	Day         string `json:"day"`
	Scope       string `json:"scope"`
	NewGraded   int    `json:"newGraded"`
	ReviewsDone int    `json:"reviewsDone"`
}

// Store is a diskv-backed counter store. Keys shard by calendar day so a
// day's records live under one directory.
type Store struct {
	d *diskv.Diskv
}

// New creates a Store rooted at dir.
func New(dir string) *Store {
	return &Store{d: diskv.New(diskv.Options{
		BasePath:          dir,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})}
}

// Load reads the counts for one (day, scope). A missing record loads as zero
// counts and no error. A corrupt record loads as zero counts plus the parse
// error so the caller can log it; corruption never blocks a session.
func (s *Store) Load(day, scope string) (*Counts, error) {
	zero := &Counts{Day: day, Scope: normalizeScope(scope)}

	data, err := s.d.Read(toKey(day, scope))
	if err != nil {
		return zero, nil
	}

	counts := &Counts{}
	if err := json.Unmarshal(data, counts); err != nil {
		return zero, errors.Wrapf(err, "corrupt fallback record for %s/%s", day, scope)
	}
	if counts.NewGraded < 0 {
		counts.NewGraded = 0
	}
	if counts.ReviewsDone < 0 {
		counts.ReviewsDone = 0
	}
	counts.Day = day
	counts.Scope = normalizeScope(scope)
	return counts, nil
}

// Save writes the counts for one (day, scope).
func (s *Store) Save(day, scope string, counts *Counts) error {
	record := *counts
	record.Day = day
	record.Scope = normalizeScope(scope)

	data, err := json.Marshal(&record)
	if err != nil {
		return errors.Wrap(err, "marshal fallback record")
	}
	if err := s.d.Write(toKey(day, scope), data); err != nil {
		return errors.Wrapf(err, "write fallback record for %s/%s", day, scope)
	}
	return nil
}

// Clear removes the record for one (day, scope). Clearing an absent record is
// a no-op.
func (s *Store) Clear(day, scope string) error {
	if err := s.d.Erase(toKey(day, scope)); err != nil {
		if s.d.Has(toKey(day, scope)) {
			return errors.Wrapf(err, "erase fallback record for %s/%s", day, scope)
		}
	}
	return nil
}

// Scopes lists the scopes with a record for the given day.
func (s *Store) Scopes(ctx context.Context, day string) []string {
	prefix := day + "-"
	scopes := []string{}
	for key := range s.d.Keys(ctx.Done()) {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		scope, err := decodeScope(strings.TrimPrefix(key, prefix))
		if err != nil {
			continue
		}
		scopes = append(scopes, scope)
	}
	return scopes
}

// normalizeScope maps the empty scope onto the engine's default partition so
// records always have a usable file name.
func normalizeScope(scope string) string {
	if scope == "" {
		return "default"
	}
	return scope
}

// toKey makes `day-scopehex`. The day's own dashes shard the record into
// year/month/day directories via the path transform.
func toKey(day, scope string) string {
	return fmt.Sprintf("%s-%s", day, encodeScope(normalizeScope(scope)))
}

// encodeScope hex-encodes the scope so arbitrary names stay path-safe and
// free of the key separator.
func encodeScope(scope string) string {
	return hex.EncodeToString([]byte(scope))
}

func decodeScope(s string) (string, error) {
	scope, err := hex.DecodeString(s)
	if err != nil {
		return "", err
	}
	return string(scope), nil
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}

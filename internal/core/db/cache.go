package db

import (
	"database/sql"
	"time"
)

// CachedRuleSet is one row of the rulesets table: bookkeeping about a
// compiled RuleSet, keyed by the content hash of its normalized source.
// The row is a record of how often and how recently a hash was seen — it
// never stores the compiled RuleSet itself, so evicting or losing this
// table never changes an evaluation's result. The server never reads it
// to decide whether to re-parse rule text; that reuse comes from
// api.Service's in-memory map.
type CachedRuleSet struct {
	Hash          string    `db:"hash"`
	Source        string    `db:"source"`
	RuleCount     int       `db:"rule_count"`
	GoldenOutcome string    `db:"golden_outcome"`
	CreatedAt     time.Time `db:"created_at"`
	LastUsedAt    time.Time `db:"last_used_at"`
	HitCount      int       `db:"hit_count"`
}

// GetRuleSet looks up a cached row by content hash. A nil, nil return
// means the hash was never recorded.
func (q *Queries) GetRuleSet(hash string) (*CachedRuleSet, error) {
	var row CachedRuleSet
	err := q.Get("get-ruleset-by-hash", &row, hash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// RecordRuleSet registers a sighting of hash: a first sighting
// inserts a row with hit_count 1, a repeat sighting bumps hit_count and
// last_used_at on the existing row.
func (q *Queries) RecordRuleSet(hash, source string, ruleCount int, goldenOutcome string) error {
	existing, err := q.GetRuleSet(hash)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if existing == nil {
		_, err := q.Exec("insert-ruleset", hash, source, ruleCount, goldenOutcome, now, now)
		return err
	}
	_, err = q.Exec("touch-ruleset", now, hash)
	return err
}

// CountRuleSets returns the number of distinct rule texts ever compiled.
func (q *Queries) CountRuleSets() (int, error) {
	var count int
	if err := q.Get("count-rulesets", &count); err != nil {
		return 0, err
	}
	return count, nil
}

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/investiq/internal/contracts"
)

// Schema is the idempotent DDL of the decision journal
var Schema = []string{
	`CREATE SCHEMA IF NOT EXISTS audit`,
	`CREATE TABLE IF NOT EXISTS audit.decisions (
		id              BIGSERIAL PRIMARY KEY,
		symbol          TEXT             NOT NULL,
		recommendation  TEXT             NOT NULL,
		rule            TEXT             NOT NULL,
		combined_score  DOUBLE PRECISION NOT NULL,
		confidence      DOUBLE PRECISION NOT NULL,
		policy_hash     TEXT             NOT NULL,
		verdict         JSONB            NOT NULL,
		reports         JSONB            NOT NULL,
		decided_at      TIMESTAMPTZ      NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_decisions_symbol_time ON audit.decisions (symbol, decided_at DESC)`,
}

// Entry is one journaled decision
type Entry struct {
	ID             int64                    `json:"id"`
	Symbol         string                   `json:"symbol"`
	Recommendation contracts.Recommendation `json:"recommendation"`
	Rule           contracts.ConflictRule   `json:"rule"`
	CombinedScore  float64                  `json:"combined_score"`
	Confidence     float64                  `json:"confidence"`
	PolicyHash     string                   `json:"policy_hash"`
	DecidedAt      time.Time                `json:"decided_at"`
}

// Journal persists decisions for later review
// 기록 전용: 판단 엔진은 과거 결과를 읽지 않음
type Journal struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewJournal creates a new decision journal
func NewJournal(pool *pgxpool.Pool) *Journal {
	return &Journal{pool: pool, now: time.Now}
}

// Record saves one analysis with its verdict and raw reports
func (j *Journal) Record(ctx context.Context, analysis *contracts.Analysis) error {
	v := analysis.Verdict
	if v == nil {
		return fmt.Errorf("record %s: no verdict", analysis.Symbol)
	}

	verdictJSON, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}
	reportsJSON, err := json.Marshal(analysis.Reports)
	if err != nil {
		return fmt.Errorf("failed to marshal reports: %w", err)
	}

	query := `
		INSERT INTO audit.decisions (
			symbol, recommendation, rule, combined_score, confidence,
			policy_hash, verdict, reports, decided_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = j.pool.Exec(ctx, query,
		analysis.Symbol, string(v.Recommendation), string(v.Rule), v.CombinedScore, v.Confidence,
		v.PolicyHash, verdictJSON, reportsJSON, j.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}

	return nil
}

// Recent returns the latest decisions of a symbol, newest first
func (j *Journal) Recent(ctx context.Context, symbol string, limit int) ([]Entry, error) {
	query := `
		SELECT id, symbol, recommendation, rule, combined_score, confidence, policy_hash, decided_at
		FROM audit.decisions
		WHERE symbol = $1
		ORDER BY decided_at DESC, id DESC
		LIMIT $2
	`

	rows, err := j.pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var rec, rule string
		if err := rows.Scan(&e.ID, &e.Symbol, &rec, &rule, &e.CombinedScore, &e.Confidence, &e.PolicyHash, &e.DecidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		e.Recommendation = contracts.Recommendation(rec)
		e.Rule = contracts.ConflictRule(rule)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return entries, nil
}

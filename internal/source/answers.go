package source

import (
	"context"
	"fmt"

	"github.com/roach88/tabled/internal/canon"
)

// Answer is one logged query outcome.
type Answer struct {
	RunID   string
	Seq     int64
	Query   string
	Outcome string
	// JSON is the canonical encoding produced by canon.MarshalAnswer.
	JSON string
	Hash string
}

// Record appends an answer to the log. Writing the same (run, seq) twice
// is a no-op, so a retried run does not duplicate its answers.
func (d *DB) Record(ctx context.Context, runID string, seq int64, a canon.Answer) error {
	data, err := canon.MarshalAnswer(a)
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	_, err = d.db.ExecContext(ctx, `
		INSERT INTO answers (run_id, seq, query, outcome, answer, answer_hash)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`, runID, seq, a.Query, a.Outcome, string(data), canon.Hash(data))
	if err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	return nil
}

// Answers returns the answers of a run in sequence order.
func (d *DB) Answers(ctx context.Context, runID string) ([]Answer, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT run_id, seq, query, outcome, answer, answer_hash
		FROM answers WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	defer rows.Close()

	var out []Answer
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.RunID, &a.Seq, &a.Query, &a.Outcome, &a.JSON, &a.Hash); err != nil {
			return nil, fmt.Errorf("read answers: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

package scenario

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// SQLProvider reads scenario definitions from the scenarios table.
type SQLProvider struct{ db *sql.DB }

func NewSQLProvider(db *sql.DB) *SQLProvider { return &SQLProvider{db: db} }

func (p *SQLProvider) Load(ctx context.Context, topic string) (*Scenario, error) {
	var dj string
	err := p.db.QueryRowContext(ctx,
		`SELECT definition_json FROM scenarios WHERE topic=$1`, topic).Scan(&dj)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var s Scenario
	if err := json.Unmarshal([]byte(dj), &s); err != nil {
		return nil, err
	}
	if s.Topic == "" {
		s.Topic = topic
	}
	return &s, nil
}

func (p *SQLProvider) Topics(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT topic FROM scenarios ORDER BY topic`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

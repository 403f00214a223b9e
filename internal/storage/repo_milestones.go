package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MilestoneRecord marks one progress threshold as achieved. The threshold is
// the primary key, so re-crossing a threshold can never create a duplicate.
type MilestoneRecord struct {
	Threshold              int
	AchievedAt             time.Time
	PrincipalAtAchievement float64
	Celebrated             bool
}

type MilestonesRepo struct {
	db *sql.DB
}

func NewMilestonesRepo(db *sql.DB) *MilestonesRepo {
	return &MilestonesRepo{db: db}
}

// Save records an achievement. An existing row for the threshold is left
// untouched: the first achievement wins.
func (r *MilestonesRepo) Save(ctx context.Context, m MilestoneRecord) error {
	celebrated := 0
	if m.Celebrated {
		celebrated = 1
	}
	const q = `
INSERT INTO milestones (threshold, achieved_at, principal_at_achievement, celebrated)
VALUES (?, ?, ?, ?)
ON CONFLICT(threshold) DO NOTHING
`
	_, err := r.db.ExecContext(
		ctx,
		q,
		m.Threshold,
		m.AchievedAt.UTC().Format(time.RFC3339Nano),
		m.PrincipalAtAchievement,
		celebrated,
	)
	if err != nil {
		return fmt.Errorf("insert milestone %d: %w", m.Threshold, err)
	}
	return nil
}

func (r *MilestonesRepo) Get(ctx context.Context, threshold int) (MilestoneRecord, bool, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT threshold, achieved_at, principal_at_achievement, celebrated
		 FROM milestones WHERE threshold = ?`,
		threshold,
	)

	var m MilestoneRecord
	var achievedAt string
	var celebrated int
	if err := row.Scan(&m.Threshold, &achievedAt, &m.PrincipalAtAchievement, &celebrated); err != nil {
		if err == sql.ErrNoRows {
			return MilestoneRecord{}, false, nil
		}
		return MilestoneRecord{}, false, fmt.Errorf("query milestone %d: %w", threshold, err)
	}

	t, err := time.Parse(time.RFC3339Nano, achievedAt)
	if err != nil {
		return MilestoneRecord{}, false, fmt.Errorf("parse milestone achieved_at: %w", err)
	}
	m.AchievedAt = t
	m.Celebrated = celebrated == 1
	return m, true, nil
}

func (r *MilestonesRepo) List(ctx context.Context) ([]MilestoneRecord, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT threshold, achieved_at, principal_at_achievement, celebrated
		 FROM milestones ORDER BY threshold`,
	)
	if err != nil {
		return nil, fmt.Errorf("query milestones: %w", err)
	}
	defer rows.Close()

	var out []MilestoneRecord
	for rows.Next() {
		var m MilestoneRecord
		var achievedAt string
		var celebrated int
		if err := rows.Scan(&m.Threshold, &achievedAt, &m.PrincipalAtAchievement, &celebrated); err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, achievedAt)
		if err != nil {
			return nil, fmt.Errorf("parse milestone achieved_at: %w", err)
		}
		m.AchievedAt = t
		m.Celebrated = celebrated == 1
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate milestones: %w", err)
	}
	return out, nil
}

func (r *MilestonesRepo) MarkCelebrated(ctx context.Context, threshold int) error {
	if _, err := r.db.ExecContext(
		ctx,
		"UPDATE milestones SET celebrated = 1 WHERE threshold = ?",
		threshold,
	); err != nil {
		return fmt.Errorf("mark milestone %d celebrated: %w", threshold, err)
	}
	return nil
}

func (r *MilestonesRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM milestones"); err != nil {
		return fmt.Errorf("clear milestones: %w", err)
	}
	return nil
}

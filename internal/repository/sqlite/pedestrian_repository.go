package sqlite

import (
	"context"
	"fmt"

	"github.com/akashabrah/StreetSense/internal/model"
)

// PedestrianRepository implements repository.PedestrianRepository for SQLite.
type PedestrianRepository struct {
	db *DB
}

// NewPedestrianRepository creates a new SQLite pedestrian repository.
func NewPedestrianRepository(db *DB) *PedestrianRepository {
	return &PedestrianRepository{db: db}
}

// Insert adds a detection record.
func (r *PedestrianRepository) Insert(ctx context.Context, rec *model.DetectionRecord) error {
	r.db.Lock()
	defer r.db.Unlock()

	_, err := r.db.Conn().ExecContext(ctx, `
		INSERT INTO pedestrians (id, timestamp, risk_level, confidence, position_x, position_y, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Timestamp.UTC(), string(rec.RiskLevel), rec.Confidence, rec.PositionX, rec.PositionY, rec.SessionID)
	if err != nil {
		return fmt.Errorf("failed to insert pedestrian %s: %w", rec.ID, err)
	}
	return nil
}

// ListBySession returns a session's records in insertion order.
func (r *PedestrianRepository) ListBySession(ctx context.Context, sessionID string) ([]model.DetectionRecord, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT id, timestamp, risk_level, confidence, position_x, position_y, session_id
		FROM pedestrians WHERE session_id = ?
		ORDER BY timestamp, rowid
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pedestrians: %w", err)
	}
	defer rows.Close()

	var records []model.DetectionRecord
	for rows.Next() {
		var rec model.DetectionRecord
		var level string
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &level, &rec.Confidence, &rec.PositionX, &rec.PositionY, &rec.SessionID); err != nil {
			return nil, fmt.Errorf("failed to scan pedestrian: %w", err)
		}
		rec.RiskLevel = model.RiskLevel(level)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pedestrians: %w", err)
	}

	return records, nil
}

// CountBySession returns how many records a session stored.
func (r *PedestrianRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRowContext(ctx, `SELECT COUNT(*) FROM pedestrians WHERE session_id = ?`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pedestrians: %w", err)
	}
	return count, nil
}

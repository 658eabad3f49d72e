package store

import (
	"database/sql"
	"time"

	"github.com/ayusman/handarm/internal/servo"
)

// Sample is the angle set computed for one frame.
type Sample struct {
	ID         int64        `json:"id"`
	SessionID  string       `json:"session_id"`
	FrameIndex int64        `json:"frame_index"`
	Angles     servo.Angles `json:"angles"`
	HandOpen   bool         `json:"hand_open"`
	SendOK     bool         `json:"send_ok"`
	CreatedAt  time.Time    `json:"created_at"`
}

// SampleRepository provides access to recorded angle samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Append inserts one sample.
func (r *SampleRepository) Append(sm *Sample) error {
	sm.CreatedAt = time.Now()

	result, err := r.db.Exec(
		`INSERT INTO angle_samples (session_id, frame_index, a1, a2, a3, a4, hand_open, send_ok, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sm.SessionID, sm.FrameIndex,
		sm.Angles[0], sm.Angles[1], sm.Angles[2], sm.Angles[3],
		sm.HandOpen, sm.SendOK, sm.CreatedAt,
	)
	if err != nil {
		return err
	}

	sm.ID, err = result.LastInsertId()
	return err
}

// ListBySession retrieves all samples of a session in frame order.
func (r *SampleRepository) ListBySession(sessionID string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, frame_index, a1, a2, a3, a4, hand_open, send_ok, created_at
		 FROM angle_samples
		 WHERE session_id = ?
		 ORDER BY frame_index`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var sm Sample
		var open, ok int
		err := rows.Scan(&sm.ID, &sm.SessionID, &sm.FrameIndex,
			&sm.Angles[0], &sm.Angles[1], &sm.Angles[2], &sm.Angles[3],
			&open, &ok, &sm.CreatedAt)
		if err != nil {
			return nil, err
		}
		sm.HandOpen = open != 0
		sm.SendOK = ok != 0
		samples = append(samples, sm)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

package ai

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// AnalysisRecord is one classification audit entry: what was asked,
// what came back, and which backend answered (or whether the keyword
// fallback did).
type AnalysisRecord struct {
	ID         string      `json:"id"`
	Content    string      `json:"content"`
	Type       ContentType `json:"type"`
	Summary    string      `json:"summary"`
	Confidence float64     `json:"confidence"`
	Reasoning  string      `json:"reasoning"`
	Provider   string      `json:"provider"`
	Model      string      `json:"model"`
	Fallback   bool        `json:"fallback"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// AuditStore persists analysis records to sqlite.
type AuditStore struct {
	DB *sql.DB
}

func (s *AuditStore) SaveAnalysisRecord(rec AnalysisRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.DB.Exec(`
		INSERT INTO analysis_records (id, content, type, summary, confidence, reasoning, provider, model, fallback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Content, string(rec.Type), rec.Summary, rec.Confidence,
		rec.Reasoning, rec.Provider, rec.Model, rec.Fallback, rec.CreatedAt)
	return err
}

// RecentAnalysisRecords returns the newest audit entries, most recent first.
func RecentAnalysisRecords(db *sql.DB, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, content, type, summary, confidence, reasoning, provider, model, fallback, created_at
		FROM analysis_records ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []AnalysisRecord{}
	for rows.Next() {
		var rec AnalysisRecord
		var kind string
		if err := rows.Scan(&rec.ID, &rec.Content, &kind, &rec.Summary, &rec.Confidence,
			&rec.Reasoning, &rec.Provider, &rec.Model, &rec.Fallback, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Type = ContentType(kind)
		records = append(records, rec)
	}
	return records, rows.Err()
}

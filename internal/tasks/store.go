package tasks

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Priority levels. The analysis pipeline speaks labels, the store
// speaks small integers so ordering queries stay cheap.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

func PriorityFromLabel(label string) int {
	switch label {
	case "low":
		return PriorityLow
	case "high":
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

func LabelForPriority(p int) string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	default:
		return "medium"
	}
}

type Task struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Type        string `json:"type"`
	Priority    int    `json:"priority"`
	Status      string `json:"status"`

	AIType       string  `json:"aiType,omitempty"`
	AISummary    string  `json:"aiSummary,omitempty"`
	AIConfidence float64 `json:"aiConfidence,omitempty"`
	AIReasoning  string  `json:"aiReasoning,omitempty"`
	AIModel      string  `json:"aiModel,omitempty"`

	EstimatedDuration  string `json:"estimatedDuration,omitempty"`
	HasDeadline        bool   `json:"hasDeadline"`
	SuggestedTimeframe string `json:"suggestedTimeframe,omitempty"`

	IsRecurring    bool       `json:"isRecurring"`
	Frequency      string     `json:"frequency,omitempty"`
	LastRecurredAt *time.Time `json:"lastRecurredAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const taskColumns = `id, user_id, title, description, content, type, priority, status,
	ai_type, ai_summary, ai_confidence, ai_reasoning, ai_model,
	estimated_duration, has_deadline, suggested_timeframe,
	is_recurring, frequency, last_recurred_at, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (Task, error) {
	var t Task
	var lastRecurred sql.NullTime
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.Content, &t.Type,
		&t.Priority, &t.Status,
		&t.AIType, &t.AISummary, &t.AIConfidence, &t.AIReasoning, &t.AIModel,
		&t.EstimatedDuration, &t.HasDeadline, &t.SuggestedTimeframe,
		&t.IsRecurring, &t.Frequency, &lastRecurred, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Task{}, err
	}
	if lastRecurred.Valid {
		t.LastRecurredAt = &lastRecurred.Time
	}
	return t, nil
}

func InsertTask(db *sql.DB, t Task) (Task, error) {
	t.ID = uuid.NewString()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Type == "" {
		t.Type = "task"
	}
	if t.Status == "" {
		t.Status = "pending"
	}
	if t.Priority == 0 {
		t.Priority = PriorityMedium
	}
	_, err := db.Exec(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Title, t.Description, t.Content, t.Type, t.Priority, t.Status,
		t.AIType, t.AISummary, t.AIConfidence, t.AIReasoning, t.AIModel,
		t.EstimatedDuration, t.HasDeadline, t.SuggestedTimeframe,
		t.IsRecurring, t.Frequency, t.LastRecurredAt, t.CreatedAt, t.UpdatedAt)
	return t, err
}

// TasksByUser lists a user's tasks, newest first. Empty status or
// taskType match all; limit <= 0 disables paging.
func TasksByUser(db *sql.DB, userID, status, taskType string, limit, offset int) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	if taskType != "" {
		query += ` AND type = ?`
		args = append(args, taskType)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		if offset < 0 {
			offset = 0
		}
		args = append(args, limit, offset)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// TaskByID fetches one task, scoped to its owner.
func TaskByID(db *sql.DB, userID, id string) (Task, error) {
	row := db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	return scanTask(row)
}

func UpdateTask(db *sql.DB, t Task) error {
	res, err := db.Exec(`
		UPDATE tasks SET title = ?, description = ?, content = ?, priority = ?, status = ?,
			estimated_duration = ?, has_deadline = ?, suggested_timeframe = ?,
			is_recurring = ?, frequency = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.Title, t.Description, t.Content, t.Priority, t.Status,
		t.EstimatedDuration, t.HasDeadline, t.SuggestedTimeframe,
		t.IsRecurring, t.Frequency, time.Now().UTC(), t.ID, t.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

func DeleteTask(db *sql.DB, userID, id string) error {
	res, err := db.Exec(`DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	// Relations referencing a deleted task are cleaned up here rather
	// than by a foreign key so older databases stay compatible.
	_, _ = db.Exec(`DELETE FROM task_goal_relations WHERE task_id = ?`, id)
	return err
}

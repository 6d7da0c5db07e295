package goals

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"mindflow/internal/ai"
)

type Goal struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Keywords    []string  `json:"keywords"`
	Status      string    `json:"status"`
	Priority    int       `json:"priority"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

const goalColumns = "id, user_id, title, description, category, keywords, status, priority, created_at, updated_at"

func scanGoal(row interface{ Scan(...any) error }) (Goal, error) {
	var g Goal
	var keywords string
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.Description, &g.Category,
		&keywords, &g.Status, &g.Priority, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return Goal{}, err
	}
	if err := json.Unmarshal([]byte(keywords), &g.Keywords); err != nil || g.Keywords == nil {
		g.Keywords = []string{}
	}
	return g, nil
}

func encodeKeywords(keywords []string) string {
	if keywords == nil {
		keywords = []string{}
	}
	encoded, _ := json.Marshal(keywords)
	return string(encoded)
}

func InsertGoal(db *sql.DB, g Goal) (Goal, error) {
	g.ID = uuid.NewString()
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	if g.Status == "" {
		g.Status = "active"
	}
	if g.Priority == 0 {
		g.Priority = 1
	}
	if g.Keywords == nil {
		g.Keywords = []string{}
	}
	_, err := db.Exec(`
		INSERT INTO goals (`+goalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Title, g.Description, g.Category,
		encodeKeywords(g.Keywords), g.Status, g.Priority, g.CreatedAt, g.UpdatedAt)
	return g, err
}

// GoalsByUser lists a user's goals, newest first. An empty status
// matches all.
func GoalsByUser(db *sql.DB, userID, status string) ([]Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// GoalByID fetches one goal, scoped to its owner.
func GoalByID(db *sql.DB, userID, id string) (Goal, error) {
	row := db.QueryRow(`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	return scanGoal(row)
}

func UpdateGoal(db *sql.DB, g Goal) error {
	res, err := db.Exec(`
		UPDATE goals SET title = ?, description = ?, category = ?, keywords = ?,
			status = ?, priority = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		g.Title, g.Description, g.Category, encodeKeywords(g.Keywords),
		g.Status, g.Priority, time.Now().UTC(), g.ID, g.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

func DeleteGoal(db *sql.DB, userID, id string) error {
	res, err := db.Exec(`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

// ActiveGoalContext loads the user's active goals in the shape the
// analysis pipeline consumes.
func ActiveGoalContext(db *sql.DB, userID string) ([]ai.Goal, error) {
	list, err := GoalsByUser(db, userID, "active")
	if err != nil {
		return nil, err
	}
	ctx := make([]ai.Goal, 0, len(list))
	for _, g := range list {
		ctx = append(ctx, ai.Goal{
			ID:          g.ID,
			Title:       g.Title,
			Description: g.Description,
			Category:    g.Category,
			Keywords:    g.Keywords,
		})
	}
	return ctx, nil
}

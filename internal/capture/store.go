package capture

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Capture struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Tags      []string  `json:"tags"`
	Priority  string    `json:"priority"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

func scanCapture(row interface{ Scan(...any) error }) (Capture, error) {
	var c Capture
	var tags string
	err := row.Scan(&c.ID, &c.UserID, &c.Content, &c.Type, &tags, &c.Priority, &c.Status, &c.CreatedAt)
	if err != nil {
		return Capture{}, err
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil || c.Tags == nil {
		c.Tags = []string{}
	}
	return c, nil
}

func InsertCapture(db *sql.DB, c Capture) (Capture, error) {
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	if c.Priority == "" {
		c.Priority = "medium"
	}
	if c.Status == "" {
		c.Status = "pending"
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	tags, _ := json.Marshal(c.Tags)
	_, err := db.Exec(`
		INSERT INTO captures (id, user_id, content, type, tags, priority, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Content, c.Type, string(tags), c.Priority, c.Status, c.CreatedAt)
	return c, err
}

// CapturesByUser pages through a user's captures, newest first. An
// empty typeFilter matches all types. Returns the page plus the total
// row count for the filter.
func CapturesByUser(db *sql.DB, userID, typeFilter string, page, limit int) ([]Capture, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if page < 1 {
		page = 1
	}

	where := `WHERE user_id = ?`
	args := []any{userID}
	if typeFilter != "" {
		where += ` AND type = ?`
		args = append(args, typeFilter)
	}

	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM captures `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Query(`
		SELECT id, user_id, content, type, tags, priority, status, created_at
		FROM captures `+where+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	result := []Capture{}
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, c)
	}
	return result, total, rows.Err()
}

func CaptureByID(db *sql.DB, userID, id string) (Capture, error) {
	row := db.QueryRow(`
		SELECT id, user_id, content, type, tags, priority, status, created_at
		FROM captures WHERE id = ? AND user_id = ?`, id, userID)
	return scanCapture(row)
}

func UpdateCapture(db *sql.DB, c Capture) error {
	tags, _ := json.Marshal(c.Tags)
	res, err := db.Exec(`
		UPDATE captures SET content = ?, type = ?, tags = ?, priority = ?, status = ?
		WHERE id = ? AND user_id = ?`,
		c.Content, c.Type, string(tags), c.Priority, c.Status, c.ID, c.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

func DeleteCapture(db *sql.DB, userID, id string) error {
	res, err := db.Exec(`DELETE FROM captures WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

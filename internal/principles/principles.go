package principles

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"mindflow/internal/auth"
	"mindflow/internal/httpx"
)

type Principle struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Content     string    `json:"content"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Source      string    `json:"source"`
	Weight      int       `json:"weight"`
	CreatedAt   time.Time `json:"createdAt"`
}

func scanPrinciple(row interface{ Scan(...any) error }) (Principle, error) {
	var p Principle
	var tags string
	err := row.Scan(&p.ID, &p.UserID, &p.Content, &p.Description, &tags, &p.Source, &p.Weight, &p.CreatedAt)
	if err != nil {
		return Principle{}, err
	}
	if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil || p.Tags == nil {
		p.Tags = []string{}
	}
	return p, nil
}

func InsertPrinciple(db *sql.DB, p Principle) (Principle, error) {
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	if p.Source == "" {
		p.Source = "personal"
	}
	if p.Weight == 0 {
		p.Weight = 1
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	tags, _ := json.Marshal(p.Tags)
	_, err := db.Exec(`
		INSERT INTO principles (id, user_id, content, description, tags, source, weight, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Content, p.Description, string(tags), p.Source, p.Weight, p.CreatedAt)
	return p, err
}

func PrinciplesByUser(db *sql.DB, userID string) ([]Principle, error) {
	rows, err := db.Query(`
		SELECT id, user_id, content, description, tags, source, weight, created_at
		FROM principles WHERE user_id = ? ORDER BY weight DESC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Principle{}
	for rows.Next() {
		p, err := scanPrinciple(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func PrincipleByID(db *sql.DB, userID, id string) (Principle, error) {
	row := db.QueryRow(`
		SELECT id, user_id, content, description, tags, source, weight, created_at
		FROM principles WHERE id = ? AND user_id = ?`, id, userID)
	return scanPrinciple(row)
}

func UpdatePrinciple(db *sql.DB, p Principle) error {
	tags, _ := json.Marshal(p.Tags)
	res, err := db.Exec(`
		UPDATE principles SET content = ?, description = ?, tags = ?, source = ?, weight = ?
		WHERE id = ? AND user_id = ?`,
		p.Content, p.Description, string(tags), p.Source, p.Weight, p.ID, p.UserID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

func DeletePrinciple(db *sql.DB, userID, id string) error {
	res, err := db.Exec(`DELETE FROM principles WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return err
}

func validSource(source string) bool {
	switch source {
	case "personal", "book", "article", "other":
		return true
	}
	return false
}

type Handler struct {
	DB *sql.DB
}

func NewHandler(db *sql.DB) *Handler {
	return &Handler{DB: db}
}

type principleRequest struct {
	Content     string   `json:"content"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Source      string   `json:"source"`
	Weight      int      `json:"weight"`
}

// Collection handles /api/principles: GET lists, POST creates.
func (h *Handler) Collection(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.RequireIdentity(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		list, err := PrinciplesByUser(h.DB, identity.UserID)
		if err != nil {
			log.Printf("principles list error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, list, "")

	case http.MethodPost:
		var req principleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "无效的请求数据")
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			httpx.Fail(w, http.StatusBadRequest, "内容不能为空")
			return
		}
		if req.Source != "" && !validSource(req.Source) {
			httpx.Fail(w, http.StatusBadRequest, "无效的来源")
			return
		}

		principle, err := InsertPrinciple(h.DB, Principle{
			UserID:      identity.UserID,
			Content:     req.Content,
			Description: req.Description,
			Tags:        req.Tags,
			Source:      req.Source,
			Weight:      req.Weight,
		})
		if err != nil {
			log.Printf("principles insert error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, principle, "心则创建成功")

	default:
		httpx.MethodNotAllowed(w)
	}
}

// Item handles /api/principles/{id}: PUT updates, DELETE removes.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.RequireIdentity(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/principles/")
	if id == "" || strings.Contains(id, "/") {
		httpx.Fail(w, http.StatusNotFound, "心则不存在")
		return
	}

	switch r.Method {
	case http.MethodPut:
		principle, err := PrincipleByID(h.DB, identity.UserID, id)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Fail(w, http.StatusNotFound, "心则不存在")
			return
		}
		if err != nil {
			log.Printf("principles get error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}

		var req principleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "无效的请求数据")
			return
		}
		if req.Content != "" {
			principle.Content = req.Content
		}
		if req.Description != "" {
			principle.Description = req.Description
		}
		if req.Tags != nil {
			principle.Tags = req.Tags
		}
		if req.Source != "" {
			if !validSource(req.Source) {
				httpx.Fail(w, http.StatusBadRequest, "无效的来源")
				return
			}
			principle.Source = req.Source
		}
		if req.Weight != 0 {
			principle.Weight = req.Weight
		}

		if err := UpdatePrinciple(h.DB, principle); err != nil {
			log.Printf("principles update error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, principle, "心则更新成功")

	case http.MethodDelete:
		err := DeletePrinciple(h.DB, identity.UserID, id)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Fail(w, http.StatusNotFound, "心则不存在")
			return
		}
		if err != nil {
			log.Printf("principles delete error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, nil, "心则删除成功")

	default:
		httpx.MethodNotAllowed(w)
	}
}

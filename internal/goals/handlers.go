package goals

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"mindflow/internal/auth"
	"mindflow/internal/httpx"
)

type Handler struct {
	DB *sql.DB
}

func NewHandler(db *sql.DB) *Handler {
	return &Handler{DB: db}
}

func validStatus(status string) bool {
	switch status {
	case "active", "completed", "paused":
		return true
	}
	return false
}

type goalRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Keywords    []string `json:"keywords"`
	Status      string   `json:"status"`
	Priority    int      `json:"priority"`
}

// Collection handles /api/goals: GET lists, POST creates.
func (h *Handler) Collection(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.RequireIdentity(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		status := r.URL.Query().Get("status")
		if status != "" && !validStatus(status) {
			httpx.Fail(w, http.StatusBadRequest, "无效的目标状态")
			return
		}
		list, err := GoalsByUser(h.DB, identity.UserID, status)
		if err != nil {
			log.Printf("goals list error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, list, "")

	case http.MethodPost:
		var req goalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "无效的请求数据")
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			httpx.Fail(w, http.StatusBadRequest, "标题不能为空")
			return
		}
		if req.Status != "" && !validStatus(req.Status) {
			httpx.Fail(w, http.StatusBadRequest, "无效的目标状态")
			return
		}

		goal, err := InsertGoal(h.DB, Goal{
			UserID:      identity.UserID,
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			Keywords:    req.Keywords,
			Status:      req.Status,
			Priority:    req.Priority,
		})
		if err != nil {
			log.Printf("goals insert error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, goal, "目标创建成功")

	default:
		httpx.MethodNotAllowed(w)
	}
}

// Item handles /api/goals/{id}: GET, PUT, DELETE.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.RequireIdentity(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/goals/")
	if id == "" || strings.Contains(id, "/") {
		httpx.Fail(w, http.StatusNotFound, "目标不存在")
		return
	}

	switch r.Method {
	case http.MethodGet:
		goal, err := GoalByID(h.DB, identity.UserID, id)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Fail(w, http.StatusNotFound, "目标不存在")
			return
		}
		if err != nil {
			log.Printf("goals get error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, goal, "")

	case http.MethodPut:
		goal, err := GoalByID(h.DB, identity.UserID, id)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Fail(w, http.StatusNotFound, "目标不存在")
			return
		}
		if err != nil {
			log.Printf("goals get error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}

		var req goalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "无效的请求数据")
			return
		}
		if req.Title != "" {
			goal.Title = req.Title
		}
		if req.Description != "" {
			goal.Description = req.Description
		}
		if req.Category != "" {
			goal.Category = req.Category
		}
		if req.Keywords != nil {
			goal.Keywords = req.Keywords
		}
		if req.Status != "" {
			if !validStatus(req.Status) {
				httpx.Fail(w, http.StatusBadRequest, "无效的目标状态")
				return
			}
			goal.Status = req.Status
		}
		if req.Priority != 0 {
			goal.Priority = req.Priority
		}

		if err := UpdateGoal(h.DB, goal); err != nil {
			log.Printf("goals update error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, goal, "目标更新成功")

	case http.MethodDelete:
		err := DeleteGoal(h.DB, identity.UserID, id)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Fail(w, http.StatusNotFound, "目标不存在")
			return
		}
		if err != nil {
			log.Printf("goals delete error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, nil, "目标删除成功")

	default:
		httpx.MethodNotAllowed(w)
	}
}

package tasks

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
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

func validTaskStatus(status string) bool {
	switch status {
	case "pending", "in_progress", "completed":
		return true
	}
	return false
}

type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Priority    *int   `json:"priority"`
	Status      string `json:"status"`

	EstimatedDuration  string `json:"estimatedDuration"`
	HasDeadline        *bool  `json:"hasDeadline"`
	SuggestedTimeframe string `json:"suggestedTimeframe"`
	IsRecurring        *bool  `json:"isRecurring"`
	Frequency          string `json:"frequency"`

	AIType       string  `json:"aiType"`
	AISummary    string  `json:"aiSummary"`
	AIConfidence float64 `json:"aiConfidence"`
	AIReasoning  string  `json:"aiReasoning"`
	AIModel      string  `json:"aiModel"`
}

// Collection handles /api/tasks: GET lists, POST creates.
func (h *Handler) Collection(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.RequireIdentity(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		status := q.Get("status")
		if status != "" && !validTaskStatus(status) {
			httpx.Fail(w, http.StatusBadRequest, "无效的任务状态")
			return
		}
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		list, err := TasksByUser(h.DB, identity.UserID, status, q.Get("type"), limit, offset)
		if err != nil {
			log.Printf("tasks list error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, list, "")

	case http.MethodPost:
		var req taskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "无效的请求数据")
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			httpx.Fail(w, http.StatusBadRequest, "标题不能为空")
			return
		}
		if req.Status != "" && !validTaskStatus(req.Status) {
			httpx.Fail(w, http.StatusBadRequest, "无效的任务状态")
			return
		}
		if req.Frequency != "" && !validFrequency(req.Frequency) {
			httpx.Fail(w, http.StatusBadRequest, "无效的重复频率")
			return
		}

		task := Task{
			UserID:             identity.UserID,
			Title:              req.Title,
			Description:        req.Description,
			Content:            req.Content,
			Status:             req.Status,
			EstimatedDuration:  req.EstimatedDuration,
			SuggestedTimeframe: req.SuggestedTimeframe,
			Frequency:          req.Frequency,
			AIType:             req.AIType,
			AISummary:          req.AISummary,
			AIConfidence:       req.AIConfidence,
			AIReasoning:        req.AIReasoning,
			AIModel:            req.AIModel,
		}
		if req.Priority != nil {
			task.Priority = *req.Priority
		}
		if req.HasDeadline != nil {
			task.HasDeadline = *req.HasDeadline
		}
		if req.IsRecurring != nil {
			task.IsRecurring = *req.IsRecurring
		}
		if task.Priority < 0 || task.Priority > PriorityHigh {
			httpx.Fail(w, http.StatusBadRequest, "无效的优先级")
			return
		}

		created, err := InsertTask(h.DB, task)
		if err != nil {
			log.Printf("tasks insert error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, created, "任务创建成功")

	default:
		httpx.MethodNotAllowed(w)
	}
}

// Item handles /api/tasks/{id}: GET, PUT, DELETE.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.RequireIdentity(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	if id == "" || strings.Contains(id, "/") {
		httpx.Fail(w, http.StatusNotFound, "任务不存在")
		return
	}

	switch r.Method {
	case http.MethodGet:
		task, err := TaskByID(h.DB, identity.UserID, id)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Fail(w, http.StatusNotFound, "任务不存在")
			return
		}
		if err != nil {
			log.Printf("tasks get error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, task, "")

	case http.MethodPut:
		task, err := TaskByID(h.DB, identity.UserID, id)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Fail(w, http.StatusNotFound, "任务不存在")
			return
		}
		if err != nil {
			log.Printf("tasks get error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}

		var req taskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "无效的请求数据")
			return
		}
		if req.Title != "" {
			task.Title = req.Title
		}
		if req.Description != "" {
			task.Description = req.Description
		}
		if req.Content != "" {
			task.Content = req.Content
		}
		if req.Priority != nil {
			if *req.Priority < PriorityLow || *req.Priority > PriorityHigh {
				httpx.Fail(w, http.StatusBadRequest, "无效的优先级")
				return
			}
			task.Priority = *req.Priority
		}
		if req.Status != "" {
			if !validTaskStatus(req.Status) {
				httpx.Fail(w, http.StatusBadRequest, "无效的任务状态")
				return
			}
			task.Status = req.Status
		}
		if req.EstimatedDuration != "" {
			task.EstimatedDuration = req.EstimatedDuration
		}
		if req.HasDeadline != nil {
			task.HasDeadline = *req.HasDeadline
		}
		if req.SuggestedTimeframe != "" {
			task.SuggestedTimeframe = req.SuggestedTimeframe
		}
		if req.IsRecurring != nil {
			task.IsRecurring = *req.IsRecurring
		}
		if req.Frequency != "" {
			if !validFrequency(req.Frequency) {
				httpx.Fail(w, http.StatusBadRequest, "无效的重复频率")
				return
			}
			task.Frequency = req.Frequency
		}

		if err := UpdateTask(h.DB, task); err != nil {
			log.Printf("tasks update error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, task, "任务更新成功")

	case http.MethodDelete:
		err := DeleteTask(h.DB, identity.UserID, id)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Fail(w, http.StatusNotFound, "任务不存在")
			return
		}
		if err != nil {
			log.Printf("tasks delete error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, nil, "任务删除成功")

	default:
		httpx.MethodNotAllowed(w)
	}
}

package capture

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"mindflow/internal/ai"
	"mindflow/internal/auth"
	"mindflow/internal/goals"
	"mindflow/internal/httpx"
)

// Analyzer is the slice of the analysis pipeline the capture endpoints
// use. *ai.Service satisfies it.
type Analyzer interface {
	RecognizeContent(ctx context.Context, content string) ai.RecognitionResult
	AnalyzeTask(ctx context.Context, content string, goals []ai.Goal) ai.TaskAnalysis
	ScoreAlignment(ctx context.Context, task string, goalTitles []string) ai.GoalAlignmentResult
}

type Handler struct {
	DB       *sql.DB
	Analyzer Analyzer
}

func NewHandler(db *sql.DB, analyzer Analyzer) *Handler {
	return &Handler{DB: db, Analyzer: analyzer}
}

func validCaptureType(kind string) bool {
	switch kind {
	case "task", "goal", "principle":
		return true
	}
	return false
}

type analyzeRequest struct {
	Content      string `json:"content"`
	AnalysisType string `json:"analysisType"`
}

// Analyze handles POST /api/capture/analyze: classify free text, or
// run the full task enrichment when analysisType is "task".
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.RequireIdentity(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		httpx.MethodNotAllowed(w)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "无效的请求数据")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		httpx.Fail(w, http.StatusBadRequest, "内容不能为空")
		return
	}
	if req.AnalysisType == "" {
		req.AnalysisType = "content"
	}

	switch req.AnalysisType {
	case "content":
		result := h.Analyzer.RecognizeContent(r.Context(), req.Content)
		httpx.OK(w, result, "AI分析完成")

	case "task":
		goalCtx, err := goals.ActiveGoalContext(h.DB, identity.UserID)
		if err != nil {
			log.Printf("capture analyze goal context error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		analysis := h.Analyzer.AnalyzeTask(r.Context(), req.Content, goalCtx)
		httpx.OK(w, analysis, "AI分析完成")

	default:
		httpx.Fail(w, http.StatusBadRequest, "无效的分析类型")
	}
}

type alignRequest struct {
	Content string   `json:"content"`
	Task    string   `json:"task"`
	Goals   []string `json:"goals"`
}

// Align handles POST /api/capture/align: score a task against goals.
// Callers may name the goals explicitly; otherwise the user's active
// goal titles are used.
func (h *Handler) Align(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.RequireIdentity(w, r)
	if !ok {
		return
	}
	if r.Method != http.MethodPost {
		httpx.MethodNotAllowed(w)
		return
	}

	var req alignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "无效的请求数据")
		return
	}
	text := req.Task
	if text == "" {
		text = req.Content
	}
	if strings.TrimSpace(text) == "" {
		httpx.Fail(w, http.StatusBadRequest, "内容不能为空")
		return
	}

	titles := req.Goals
	if len(titles) == 0 {
		goalCtx, err := goals.ActiveGoalContext(h.DB, identity.UserID)
		if err != nil {
			log.Printf("capture align goal context error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		for _, g := range goalCtx {
			titles = append(titles, g.Title)
		}
	}

	result := h.Analyzer.ScoreAlignment(r.Context(), text, titles)
	httpx.OK(w, result, "AI分析完成")
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type capturePageData struct {
	Captures   []Capture  `json:"captures"`
	Pagination pagination `json:"pagination"`
}

func capturePage(list []Capture, total, page, limit int) capturePageData {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	if page < 1 {
		page = 1
	}
	pages := (total + limit - 1) / limit
	return capturePageData{
		Captures:   list,
		Pagination: pagination{Page: page, Limit: limit, Total: total, Pages: pages},
	}
}

type captureRequest struct {
	Content  string   `json:"content"`
	Type     string   `json:"type"`
	Tags     []string `json:"tags"`
	Priority string   `json:"priority"`
	Status   string   `json:"status"`
}

// Collection handles /api/capture: GET pages, POST saves, PUT runs the
// classifier without saving. A create without an explicit type runs the
// classifier first so the capture lands in the right bucket even
// offline.
func (h *Handler) Collection(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.RequireIdentity(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		limit, _ := strconv.Atoi(q.Get("limit"))
		typeFilter := q.Get("type")
		if typeFilter != "" && !validCaptureType(typeFilter) {
			httpx.Fail(w, http.StatusBadRequest, "无效的类型")
			return
		}

		list, total, err := CapturesByUser(h.DB, identity.UserID, typeFilter, page, limit)
		if err != nil {
			log.Printf("captures list error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, capturePage(list, total, page, limit), "")

	case http.MethodPost:
		var req captureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "无效的请求数据")
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			httpx.Fail(w, http.StatusBadRequest, "内容不能为空")
			return
		}
		if req.Type == "" {
			recognition := h.Analyzer.RecognizeContent(r.Context(), req.Content)
			req.Type = string(recognition.Type)
		}
		if !validCaptureType(req.Type) {
			httpx.Fail(w, http.StatusBadRequest, "无效的类型")
			return
		}
		if req.Status == "" {
			// Tasks start pending; goals and principles are live on save.
			if req.Type == "task" {
				req.Status = "pending"
			} else {
				req.Status = "active"
			}
		}

		created, err := InsertCapture(h.DB, Capture{
			UserID:   identity.UserID,
			Content:  strings.TrimSpace(req.Content),
			Type:     req.Type,
			Tags:     req.Tags,
			Priority: req.Priority,
			Status:   req.Status,
		})
		if err != nil {
			log.Printf("captures insert error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, created, "快速保存成功")

	case http.MethodPut:
		// Recognition variant: classify the text without saving it.
		var req analyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "无效的请求数据")
			return
		}
		if strings.TrimSpace(req.Content) == "" {
			httpx.Fail(w, http.StatusBadRequest, "内容不能为空")
			return
		}
		result := h.Analyzer.RecognizeContent(r.Context(), req.Content)
		httpx.OK(w, result, "AI分析完成")

	default:
		httpx.MethodNotAllowed(w)
	}
}

// Item handles /api/captures/{id}: GET, PUT, DELETE.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.RequireIdentity(w, r)
	if !ok {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/captures/")
	if id == "" || strings.Contains(id, "/") {
		httpx.Fail(w, http.StatusNotFound, "记录不存在")
		return
	}

	capture, err := CaptureByID(h.DB, identity.UserID, id)
	if errors.Is(err, sql.ErrNoRows) {
		httpx.Fail(w, http.StatusNotFound, "记录不存在")
		return
	}
	if err != nil {
		log.Printf("captures get error: %v", err)
		httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	switch r.Method {
	case http.MethodGet:
		httpx.OK(w, capture, "")

	case http.MethodPut:
		var req captureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "无效的请求数据")
			return
		}
		if req.Content != "" {
			capture.Content = req.Content
		}
		if req.Type != "" {
			if !validCaptureType(req.Type) {
				httpx.Fail(w, http.StatusBadRequest, "无效的内容类型")
				return
			}
			capture.Type = req.Type
		}
		if req.Tags != nil {
			capture.Tags = req.Tags
		}
		if req.Priority != "" {
			capture.Priority = req.Priority
		}
		if req.Status != "" {
			capture.Status = req.Status
		}

		if err := UpdateCapture(h.DB, capture); err != nil {
			log.Printf("captures update error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, capture, "记录更新成功")

	case http.MethodDelete:
		if err := DeleteCapture(h.DB, identity.UserID, id); err != nil {
			log.Printf("captures delete error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, nil, "记录删除成功")

	default:
		httpx.MethodNotAllowed(w)
	}
}

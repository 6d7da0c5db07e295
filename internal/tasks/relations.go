package tasks

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"mindflow/internal/auth"
	"mindflow/internal/goals"
	"mindflow/internal/httpx"
)

// Relation links a task to a goal with an alignment score. The score
// starts from the AI analysis; userConfirmed flips when the user
// accepts or adjusts it.
type Relation struct {
	ID             string    `json:"id"`
	TaskID         string    `json:"taskId"`
	GoalID         string    `json:"goalId"`
	AlignmentScore float64   `json:"alignmentScore"`
	UserConfirmed  bool      `json:"userConfirmed"`
	Reasoning      string    `json:"reasoning"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func InsertRelation(db *sql.DB, rel Relation) (Relation, error) {
	rel.ID = uuid.NewString()
	now := time.Now().UTC()
	rel.CreatedAt = now
	rel.UpdatedAt = now
	_, err := db.Exec(`
		INSERT INTO task_goal_relations (id, task_id, goal_id, alignment_score, user_confirmed, reasoning, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rel.ID, rel.TaskID, rel.GoalID, rel.AlignmentScore, rel.UserConfirmed, rel.Reasoning, rel.CreatedAt, rel.UpdatedAt)
	return rel, err
}

func RelationsByTask(db *sql.DB, taskID string) ([]Relation, error) {
	rows, err := db.Query(`
		SELECT id, task_id, goal_id, alignment_score, user_confirmed, reasoning, created_at, updated_at
		FROM task_goal_relations WHERE task_id = ? ORDER BY alignment_score DESC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Relation{}
	for rows.Next() {
		var rel Relation
		if err := rows.Scan(&rel.ID, &rel.TaskID, &rel.GoalID, &rel.AlignmentScore,
			&rel.UserConfirmed, &rel.Reasoning, &rel.CreatedAt, &rel.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, rel)
	}
	return result, rows.Err()
}

func relationExists(db *sql.DB, taskID, goalID string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM task_goal_relations WHERE task_id = ? AND goal_id = ?`,
		taskID, goalID).Scan(&count)
	return count > 0, err
}

type relationRequest struct {
	TaskID         string   `json:"taskId"`
	GoalID         string   `json:"goalId"`
	RelationID     string   `json:"relationId"`
	AlignmentScore *float64 `json:"alignmentScore"`
	UserConfirmed  *bool    `json:"userConfirmed"`
	Reasoning      string   `json:"reasoning"`
}

// Relations handles /api/tasks/goals: the task-goal link collection.
// GET lists a task's links, POST creates one, PUT adjusts score or
// confirmation, DELETE removes one.
func (h *Handler) Relations(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.RequireIdentity(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		taskID := r.URL.Query().Get("taskId")
		if taskID == "" {
			httpx.Fail(w, http.StatusBadRequest, "缺少taskId参数")
			return
		}
		if _, err := TaskByID(h.DB, identity.UserID, taskID); errors.Is(err, sql.ErrNoRows) {
			httpx.Fail(w, http.StatusNotFound, "任务不存在")
			return
		} else if err != nil {
			log.Printf("relations task lookup error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		list, err := RelationsByTask(h.DB, taskID)
		if err != nil {
			log.Printf("relations list error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, list, "")

	case http.MethodPost:
		var req relationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "无效的请求数据")
			return
		}
		if req.TaskID == "" || req.GoalID == "" {
			httpx.Fail(w, http.StatusBadRequest, "taskId和goalId不能为空")
			return
		}

		// Both ends must belong to the caller.
		if _, err := TaskByID(h.DB, identity.UserID, req.TaskID); errors.Is(err, sql.ErrNoRows) {
			httpx.Fail(w, http.StatusNotFound, "任务不存在")
			return
		} else if err != nil {
			log.Printf("relations task lookup error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		if _, err := goals.GoalByID(h.DB, identity.UserID, req.GoalID); errors.Is(err, sql.ErrNoRows) {
			httpx.Fail(w, http.StatusNotFound, "目标不存在")
			return
		} else if err != nil {
			log.Printf("relations goal lookup error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}

		exists, err := relationExists(h.DB, req.TaskID, req.GoalID)
		if err != nil {
			log.Printf("relations exists check error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		if exists {
			httpx.Fail(w, http.StatusBadRequest, "该任务与目标已关联")
			return
		}

		score := 0.5
		if req.AlignmentScore != nil {
			score = clampScore(*req.AlignmentScore)
		}
		confirmed := false
		if req.UserConfirmed != nil {
			confirmed = *req.UserConfirmed
		}
		rel, err := InsertRelation(h.DB, Relation{
			TaskID:         req.TaskID,
			GoalID:         req.GoalID,
			AlignmentScore: score,
			UserConfirmed:  confirmed,
			Reasoning:      req.Reasoning,
		})
		if err != nil {
			log.Printf("relations insert error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, rel, "关联创建成功")

	case http.MethodPut:
		var req relationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "无效的请求数据")
			return
		}
		if req.RelationID == "" {
			httpx.Fail(w, http.StatusBadRequest, "缺少relationId参数")
			return
		}

		rel, err := h.ownedRelation(identity.UserID, req.RelationID)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Fail(w, http.StatusNotFound, "关联不存在")
			return
		}
		if err != nil {
			log.Printf("relations lookup error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}

		if req.AlignmentScore != nil {
			rel.AlignmentScore = clampScore(*req.AlignmentScore)
		}
		if req.UserConfirmed != nil {
			rel.UserConfirmed = *req.UserConfirmed
		}
		if req.Reasoning != "" {
			rel.Reasoning = req.Reasoning
		}
		_, err = h.DB.Exec(`
			UPDATE task_goal_relations SET alignment_score = ?, user_confirmed = ?, reasoning = ?, updated_at = ?
			WHERE id = ?`,
			rel.AlignmentScore, rel.UserConfirmed, rel.Reasoning, time.Now().UTC(), rel.ID)
		if err != nil {
			log.Printf("relations update error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, rel, "关联更新成功")

	case http.MethodDelete:
		relationID := r.URL.Query().Get("relationId")
		if relationID == "" {
			httpx.Fail(w, http.StatusBadRequest, "缺少relationId参数")
			return
		}
		if _, err := h.ownedRelation(identity.UserID, relationID); errors.Is(err, sql.ErrNoRows) {
			httpx.Fail(w, http.StatusNotFound, "关联不存在")
			return
		} else if err != nil {
			log.Printf("relations lookup error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		if _, err := h.DB.Exec(`DELETE FROM task_goal_relations WHERE id = ?`, relationID); err != nil {
			log.Printf("relations delete error: %v", err)
			httpx.Fail(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}
		httpx.OK(w, nil, "关联删除成功")

	default:
		httpx.MethodNotAllowed(w)
	}
}

// ownedRelation loads a relation only if its task belongs to the user.
func (h *Handler) ownedRelation(userID, relationID string) (Relation, error) {
	var rel Relation
	err := h.DB.QueryRow(`
		SELECT r.id, r.task_id, r.goal_id, r.alignment_score, r.user_confirmed, r.reasoning, r.created_at, r.updated_at
		FROM task_goal_relations r
		JOIN tasks t ON t.id = r.task_id
		WHERE r.id = ? AND t.user_id = ?`, relationID, userID).
		Scan(&rel.ID, &rel.TaskID, &rel.GoalID, &rel.AlignmentScore,
			&rel.UserConfirmed, &rel.Reasoning, &rel.CreatedAt, &rel.UpdatedAt)
	return rel, err
}

func clampScore(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

package tasks

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mindflow/internal/goals"
)

func TestRelationLifecycle(t *testing.T) {
	h := NewHandler(newTestDB(t))
	task := createTask(t, h, "u1", `{"title":"每天跑步"}`)
	goal, err := goals.InsertGoal(h.DB, goals.Goal{UserID: "u1", Title: "健康生活"})
	if err != nil {
		t.Fatalf("InsertGoal failed: %v", err)
	}

	// Create.
	body := `{"taskId":"` + task.ID + `","goalId":"` + goal.ID + `","alignmentScore":0.8,"reasoning":"直接相关"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/tasks/goals", strings.NewReader(body)), "u1")
	rec := httptest.NewRecorder()
	h.Relations(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("create relation: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var created struct {
		Data Relation `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if created.Data.AlignmentScore != 0.8 || created.Data.UserConfirmed {
		t.Fatalf("unexpected relation: %+v", created.Data)
	}

	// Duplicate is rejected.
	req = asUser(httptest.NewRequest(http.MethodPost, "/api/tasks/goals", strings.NewReader(body)), "u1")
	rec = httptest.NewRecorder()
	h.Relations(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate relation: expected 400, got %d", rec.Code)
	}

	// List.
	req = asUser(httptest.NewRequest(http.MethodGet, "/api/tasks/goals?taskId="+task.ID, nil), "u1")
	rec = httptest.NewRecorder()
	h.Relations(rec, req)
	var listed struct {
		Data []Relation `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Data) != 1 {
		t.Fatalf("expected 1 relation, got %d", len(listed.Data))
	}

	// Confirm with adjusted score; out-of-range score is clamped.
	update := `{"relationId":"` + created.Data.ID + `","alignmentScore":1.3,"userConfirmed":true}`
	req = asUser(httptest.NewRequest(http.MethodPut, "/api/tasks/goals", strings.NewReader(update)), "u1")
	rec = httptest.NewRecorder()
	h.Relations(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update relation: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var updated struct {
		Data Relation `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if updated.Data.AlignmentScore != 1.0 || !updated.Data.UserConfirmed {
		t.Fatalf("unexpected updated relation: %+v", updated.Data)
	}

	// Delete.
	req = asUser(httptest.NewRequest(http.MethodDelete, "/api/tasks/goals?relationId="+created.Data.ID, nil), "u1")
	rec = httptest.NewRecorder()
	h.Relations(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete relation: expected 200, got %d", rec.Code)
	}
	remaining, err := RelationsByTask(h.DB, task.ID)
	if err != nil {
		t.Fatalf("RelationsByTask failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no relations after delete, got %+v", remaining)
	}
}

func TestRelationRequiresOwnedEnds(t *testing.T) {
	h := NewHandler(newTestDB(t))
	task := createTask(t, h, "u1", `{"title":"每天跑步"}`)
	foreignGoal, err := goals.InsertGoal(h.DB, goals.Goal{UserID: "u2", Title: "别人的目标"})
	if err != nil {
		t.Fatalf("InsertGoal failed: %v", err)
	}

	body := `{"taskId":"` + task.ID + `","goalId":"` + foreignGoal.ID + `"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/tasks/goals", strings.NewReader(body)), "u1")
	rec := httptest.NewRecorder()
	h.Relations(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign goal, got %d", rec.Code)
	}
}

func TestRelationUpdateScopedToOwner(t *testing.T) {
	h := NewHandler(newTestDB(t))
	task := createTask(t, h, "u1", `{"title":"每天跑步"}`)
	goal, err := goals.InsertGoal(h.DB, goals.Goal{UserID: "u1", Title: "健康生活"})
	if err != nil {
		t.Fatalf("InsertGoal failed: %v", err)
	}
	rel, err := InsertRelation(h.DB, Relation{TaskID: task.ID, GoalID: goal.ID, AlignmentScore: 0.5})
	if err != nil {
		t.Fatalf("InsertRelation failed: %v", err)
	}

	update := `{"relationId":"` + rel.ID + `","userConfirmed":true}`
	req := asUser(httptest.NewRequest(http.MethodPut, "/api/tasks/goals", strings.NewReader(update)), "u2")
	rec := httptest.NewRecorder()
	h.Relations(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign relation, got %d", rec.Code)
	}
}

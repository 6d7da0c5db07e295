package db

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens the sqlite database and creates the schema. Migrations
// are additive: new columns are added behind pragma checks so existing
// databases keep working.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		email      TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL DEFAULT '',
		password   TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id                  TEXT PRIMARY KEY,
		user_id             TEXT NOT NULL,
		title               TEXT NOT NULL,
		description         TEXT DEFAULT '',
		content             TEXT DEFAULT '',
		type                TEXT DEFAULT 'task',
		priority            INTEGER DEFAULT 1,
		status              TEXT DEFAULT 'pending',
		ai_type             TEXT DEFAULT '',
		ai_summary          TEXT DEFAULT '',
		ai_confidence       REAL DEFAULT 0,
		ai_reasoning        TEXT DEFAULT '',
		ai_model            TEXT DEFAULT '',
		estimated_duration  TEXT DEFAULT '',
		has_deadline        INTEGER DEFAULT 0,
		suggested_timeframe TEXT DEFAULT '',
		is_recurring        INTEGER DEFAULT 0,
		frequency           TEXT DEFAULT '',
		created_at          DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at          DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);

	CREATE TABLE IF NOT EXISTS goals (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		title       TEXT NOT NULL,
		description TEXT DEFAULT '',
		category    TEXT DEFAULT '',
		keywords    TEXT DEFAULT '[]',
		status      TEXT DEFAULT 'active',
		priority    INTEGER DEFAULT 1,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id);

	CREATE TABLE IF NOT EXISTS principles (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		content     TEXT NOT NULL,
		description TEXT DEFAULT '',
		tags        TEXT DEFAULT '[]',
		source      TEXT DEFAULT 'personal',
		weight      INTEGER DEFAULT 1,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_principles_user ON principles(user_id);

	CREATE TABLE IF NOT EXISTS captures (
		id         TEXT PRIMARY KEY,
		user_id    TEXT NOT NULL,
		content    TEXT NOT NULL,
		type       TEXT NOT NULL,
		tags       TEXT DEFAULT '[]',
		priority   TEXT DEFAULT 'medium',
		status     TEXT DEFAULT 'pending',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_captures_user ON captures(user_id);

	CREATE TABLE IF NOT EXISTS task_goal_relations (
		id              TEXT PRIMARY KEY,
		task_id         TEXT NOT NULL,
		goal_id         TEXT NOT NULL,
		alignment_score REAL DEFAULT 0.5,
		user_confirmed  INTEGER DEFAULT 0,
		reasoning       TEXT DEFAULT '',
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_tgr_task ON task_goal_relations(task_id);
	CREATE INDEX IF NOT EXISTS idx_tgr_goal ON task_goal_relations(goal_id);

	CREATE TABLE IF NOT EXISTS analysis_records (
		id         TEXT PRIMARY KEY,
		content    TEXT NOT NULL,
		type       TEXT NOT NULL,
		summary    TEXT DEFAULT '',
		confidence REAL DEFAULT 0,
		reasoning  TEXT DEFAULT '',
		provider   TEXT DEFAULT '',
		model      TEXT DEFAULT '',
		fallback   INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_ar_date ON analysis_records(created_at);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return nil, err
	}

	// Migration: add last_recurred_at column if missing.
	var colCount int
	_ = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('tasks') WHERE name = 'last_recurred_at'`).Scan(&colCount)
	if colCount == 0 {
		_, _ = db.Exec(`ALTER TABLE tasks ADD COLUMN last_recurred_at DATETIME`)
	}

	return db, nil
}

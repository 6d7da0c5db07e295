package tasks

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

func validFrequency(frequency string) bool {
	switch frequency {
	case "daily", "weekly", "monthly":
		return true
	}
	return false
}

// frequencyInterval is the minimum gap between two materializations of
// the same recurring task. Monthly uses 30 days.
func frequencyInterval(frequency string) time.Duration {
	switch frequency {
	case "daily":
		return 24 * time.Hour
	case "weekly":
		return 7 * 24 * time.Hour
	case "monthly":
		return 30 * 24 * time.Hour
	}
	return 0
}

// MaterializeRecurring creates a fresh pending copy of every recurring
// task whose interval has elapsed since its last materialization, and
// stamps the template's last_recurred_at. Returns how many tasks were
// materialized.
func MaterializeRecurring(db *sql.DB, now time.Time) (int, error) {
	rows, err := db.Query(`SELECT ` + taskColumns + ` FROM tasks WHERE is_recurring = 1 AND frequency != ''`)
	if err != nil {
		return 0, err
	}
	templates := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return 0, err
		}
		templates = append(templates, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	created := 0
	for _, tmpl := range templates {
		interval := frequencyInterval(tmpl.Frequency)
		if interval == 0 {
			continue
		}
		last := tmpl.CreatedAt
		if tmpl.LastRecurredAt != nil {
			last = *tmpl.LastRecurredAt
		}
		if now.Sub(last) < interval {
			continue
		}

		occurrence := tmpl
		occurrence.Status = "pending"
		// The copy is a concrete occurrence, not a new template.
		occurrence.IsRecurring = false
		occurrence.Frequency = ""
		occurrence.LastRecurredAt = nil
		if _, err := InsertTask(db, occurrence); err != nil {
			log.Printf("recurring materialize insert error (task %s): %v", tmpl.ID, err)
			continue
		}
		if _, err := db.Exec(`UPDATE tasks SET last_recurred_at = ? WHERE id = ?`, now.UTC(), tmpl.ID); err != nil {
			log.Printf("recurring stamp error (task %s): %v", tmpl.ID, err)
			continue
		}
		created++
	}
	return created, nil
}

// Scheduler runs MaterializeRecurring on a cron schedule.
type Scheduler struct {
	DB   *sql.DB
	Spec string // standard 5-field cron expression
}

// Start parses the schedule and launches the loop. Returns an error
// only for an invalid expression; the loop itself runs until the
// context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(s.Spec)
	if err != nil {
		return err
	}

	go func() {
		for {
			next := sched.Next(time.Now())
			timer := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case now := <-timer.C:
				n, err := MaterializeRecurring(s.DB, now)
				if err != nil {
					log.Printf("recurring materialize error: %v", err)
					continue
				}
				if n > 0 {
					log.Printf("materialized %d recurring task(s)", n)
				}
			}
		}
	}()
	log.Printf("recurring task scheduler started (schedule %q, next run %s)", s.Spec, sched.Next(time.Now()).Format(time.RFC3339))
	return nil
}

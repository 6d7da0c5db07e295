package auth

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func InsertUser(db *sql.DB, email, name, passwordHash string) (User, error) {
	user := User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Password:  passwordHash,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	_, err := db.Exec(
		`INSERT INTO users (id, email, name, password, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, user.Password, user.CreatedAt, user.UpdatedAt,
	)
	return user, err
}

func UserByEmail(db *sql.DB, email string) (User, error) {
	var u User
	err := db.QueryRow(
		`SELECT id, email, name, password, created_at, updated_at FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func UserByID(db *sql.DB, id string) (User, error) {
	var u User
	err := db.QueryRow(
		`SELECT id, email, name, password, created_at, updated_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Password, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func EmailExists(db *sql.DB, email string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&count)
	return count > 0, err
}

package database

import (
	"database/sql"
	"fmt"
	"time"
)

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	LinkedinURL  string    `json:"linkedin_url"`
	GithubURL    string    `json:"github_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// insertReturningID inserts a row and reports the generated id. PostgreSQL
// does not support LastInsertId, so it appends a RETURNING clause instead.
func (db *DB) insertReturningID(query string, args ...interface{}) (int, error) {
	if db.dialect == "postgres" {
		var id int
		err := db.QueryRow(db.rebind(query)+" RETURNING id", args...).Scan(&id)
		return id, err
	}

	result, err := db.Exec(db.rebind(query), args...)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	return int(id), err
}

func (db *DB) CreateUser(user *User) error {
	query := `INSERT INTO users (email, password_hash, full_name, phone, linkedin_url, github_url)
			  VALUES (?, ?, ?, ?, ?, ?)`

	id, err := db.insertReturningID(query, user.Email, user.PasswordHash,
		user.FullName, user.Phone, user.LinkedinURL, user.GithubURL)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	user.ID = id
	return nil
}

func (db *DB) GetUserByEmail(email string) (*User, error) {
	query := `SELECT id, email, password_hash, full_name, phone, linkedin_url, github_url, created_at, updated_at
			  FROM users WHERE email = ?`

	user := &User{}
	err := db.QueryRow(db.rebind(query), email).Scan(&user.ID, &user.Email, &user.PasswordHash,
		&user.FullName, &user.Phone, &user.LinkedinURL, &user.GithubURL,
		&user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

func (db *DB) GetUserByID(id int) (*User, error) {
	query := `SELECT id, email, password_hash, full_name, phone, linkedin_url, github_url, created_at, updated_at
			  FROM users WHERE id = ?`

	user := &User{}
	err := db.QueryRow(db.rebind(query), id).Scan(&user.ID, &user.Email, &user.PasswordHash,
		&user.FullName, &user.Phone, &user.LinkedinURL, &user.GithubURL,
		&user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

func (db *DB) UpdateUserProfile(user *User) error {
	query := `UPDATE users SET full_name = ?, phone = ?, linkedin_url = ?, github_url = ?, updated_at = CURRENT_TIMESTAMP
			  WHERE id = ?`

	result, err := db.Exec(db.rebind(query), user.FullName, user.Phone,
		user.LinkedinURL, user.GithubURL, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %d not found", user.ID)
	}

	return nil
}

package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQL connection with dialect-aware helpers. The same queries
// run on SQLite (single instance, zero ops) and PostgreSQL (shared server);
// rebind translates placeholders for the active dialect.
type DB struct {
	*sql.DB
	dialect string
}

// PostgresDSN builds a connection string from the individual settings.
func PostgresDSN(host, port, name, user, password, sslMode string) string {
	return fmt.Sprintf("host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
		host, port, name, user, password, sslMode)
}

// Init opens the database, verifies the connection and applies migrations.
// databaseType must be "sqlite" or "postgres"; dsn is the file path for
// SQLite or a connection string for PostgreSQL.
func Init(databaseType, dsn string) (*DB, error) {
	driver := "sqlite3"
	dialect := "sqlite"
	if databaseType == "postgres" || databaseType == "postgresql" {
		driver = "pgx"
		dialect = "postgres"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	dbWrapper := &DB{DB: db, dialect: dialect}
	if err := dbWrapper.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return dbWrapper, nil
}

// Dialect returns "sqlite" or "postgres".
func (db *DB) Dialect() string {
	return db.dialect
}

// rebind converts ? placeholders to the $n form when running on PostgreSQL.
func (db *DB) rebind(query string) string {
	if db.dialect != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) migrate() error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	now := "DATETIME DEFAULT CURRENT_TIMESTAMP"
	if db.dialect == "postgres" {
		pk = "SERIAL PRIMARY KEY"
		now = "TIMESTAMPTZ DEFAULT NOW()"
	}

	queries := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			full_name TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			linkedin_url TEXT NOT NULL DEFAULT '',
			github_url TEXT NOT NULL DEFAULT '',
			created_at %s,
			updated_at %s
		)`, pk, now, now),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS experiences (
			id %s,
			user_id INTEGER NOT NULL,
			company TEXT NOT NULL,
			title TEXT NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			start_date TEXT NOT NULL DEFAULT '',
			end_date TEXT NOT NULL DEFAULT '',
			is_current BOOLEAN NOT NULL DEFAULT FALSE,
			description TEXT NOT NULL DEFAULT '',
			created_at %s
		)`, pk, now),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS education (
			id %s,
			user_id INTEGER NOT NULL,
			institution TEXT NOT NULL,
			degree TEXT NOT NULL DEFAULT '',
			field_of_study TEXT NOT NULL DEFAULT '',
			start_year TEXT NOT NULL DEFAULT '',
			end_year TEXT NOT NULL DEFAULT '',
			gpa TEXT NOT NULL DEFAULT '',
			created_at %s
		)`, pk, now),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS skills (
			id %s,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'tools',
			created_at %s
		)`, pk, now),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS projects (
			id %s,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			tech_stack TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			created_at %s
		)`, pk, now),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS certifications (
			id %s,
			user_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			issuer TEXT NOT NULL DEFAULT '',
			issue_date TEXT NOT NULL DEFAULT '',
			credential_url TEXT NOT NULL DEFAULT '',
			created_at %s
		)`, pk, now),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS job_descriptions (
			id %s,
			user_id INTEGER NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			company TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			created_at %s
		)`, pk, now),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS resumes (
			id %s,
			user_id INTEGER NOT NULL,
			job_description_id INTEGER NOT NULL DEFAULT 0,
			ats_score INTEGER NOT NULL DEFAULT 0,
			matched_keywords TEXT NOT NULL DEFAULT '[]',
			missing_keywords TEXT NOT NULL DEFAULT '[]',
			recommendations TEXT NOT NULL DEFAULT '[]',
			content_analysis TEXT NOT NULL DEFAULT '{}',
			optimized_summary TEXT NOT NULL DEFAULT '',
			optimized_experience TEXT NOT NULL DEFAULT '[]',
			optimized_projects TEXT NOT NULL DEFAULT '[]',
			optimized_skills TEXT NOT NULL DEFAULT '{}',
			pdf_url TEXT NOT NULL DEFAULT '',
			created_at %s
		)`, pk, now),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS feedback (
			id %s,
			user_id INTEGER NOT NULL,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			priority TEXT NOT NULL DEFAULT 'medium',
			description TEXT NOT NULL,
			contact_email TEXT NOT NULL DEFAULT '',
			created_at %s
		)`, pk, now),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS rate_limit_events (
			id %s,
			identity TEXT NOT NULL,
			recorded_at BIGINT NOT NULL
		)`, pk),
		`CREATE INDEX IF NOT EXISTS idx_experiences_user_id ON experiences(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_education_user_id ON education(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_skills_user_id ON skills(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_certifications_user_id ON certifications(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_job_descriptions_user_id ON job_descriptions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_resumes_user_id ON resumes(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rate_limit_events_identity ON rate_limit_events(identity, recorded_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration query: %w", err)
		}
	}

	return nil
}

package database

import (
	"fmt"
	"time"
)

type Experience struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Company     string    `json:"company"`
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	IsCurrent   bool      `json:"is_current"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type Education struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id"`
	Institution  string    `json:"institution"`
	Degree       string    `json:"degree"`
	FieldOfStudy string    `json:"field_of_study"`
	StartYear    string    `json:"start_year"`
	EndYear      string    `json:"end_year"`
	GPA          string    `json:"gpa"`
	CreatedAt    time.Time `json:"created_at"`
}

type Skill struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

type Project struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	TechStack   string    `json:"tech_stack"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}

type Certification struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	Name          string    `json:"name"`
	Issuer        string    `json:"issuer"`
	IssueDate     string    `json:"issue_date"`
	CredentialURL string    `json:"credential_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// CompletionStatus summarizes which profile sections have content, so the
// client can steer users toward a resume-ready profile.
type CompletionStatus struct {
	HasContactInfo     bool `json:"has_contact_info"`
	ExperienceCount    int  `json:"experience_count"`
	EducationCount     int  `json:"education_count"`
	SkillCount         int  `json:"skill_count"`
	ProjectCount       int  `json:"project_count"`
	CertificationCount int  `json:"certification_count"`
	Complete           bool `json:"complete"`
}

func (db *DB) CreateExperience(exp *Experience) error {
	query := `INSERT INTO experiences (user_id, company, title, location, start_date, end_date, is_current, description)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := db.insertReturningID(query, exp.UserID, exp.Company, exp.Title,
		exp.Location, exp.StartDate, exp.EndDate, exp.IsCurrent, exp.Description)
	if err != nil {
		return fmt.Errorf("failed to create experience: %w", err)
	}

	exp.ID = id
	return nil
}

func (db *DB) GetExperiences(userID int) ([]*Experience, error) {
	query := `SELECT id, user_id, company, title, location, start_date, end_date, is_current, description, created_at
			  FROM experiences WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := db.Query(db.rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get experiences: %w", err)
	}
	defer rows.Close()

	var experiences []*Experience
	for rows.Next() {
		exp := &Experience{}
		if err := rows.Scan(&exp.ID, &exp.UserID, &exp.Company, &exp.Title, &exp.Location,
			&exp.StartDate, &exp.EndDate, &exp.IsCurrent, &exp.Description, &exp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan experience: %w", err)
		}
		experiences = append(experiences, exp)
	}

	return experiences, rows.Err()
}

func (db *DB) UpdateExperience(exp *Experience) error {
	query := `UPDATE experiences SET company = ?, title = ?, location = ?, start_date = ?, end_date = ?, is_current = ?, description = ?
			  WHERE id = ? AND user_id = ?`

	result, err := db.Exec(db.rebind(query), exp.Company, exp.Title, exp.Location,
		exp.StartDate, exp.EndDate, exp.IsCurrent, exp.Description, exp.ID, exp.UserID)
	if err != nil {
		return fmt.Errorf("failed to update experience: %w", err)
	}

	return requireAffected(result, "experience")
}

func (db *DB) DeleteExperience(id, userID int) error {
	result, err := db.Exec(db.rebind(`DELETE FROM experiences WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete experience: %w", err)
	}
	return requireAffected(result, "experience")
}

func (db *DB) CreateEducation(edu *Education) error {
	query := `INSERT INTO education (user_id, institution, degree, field_of_study, start_year, end_year, gpa)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	id, err := db.insertReturningID(query, edu.UserID, edu.Institution, edu.Degree,
		edu.FieldOfStudy, edu.StartYear, edu.EndYear, edu.GPA)
	if err != nil {
		return fmt.Errorf("failed to create education: %w", err)
	}

	edu.ID = id
	return nil
}

func (db *DB) GetEducation(userID int) ([]*Education, error) {
	query := `SELECT id, user_id, institution, degree, field_of_study, start_year, end_year, gpa, created_at
			  FROM education WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := db.Query(db.rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get education: %w", err)
	}
	defer rows.Close()

	var entries []*Education
	for rows.Next() {
		edu := &Education{}
		if err := rows.Scan(&edu.ID, &edu.UserID, &edu.Institution, &edu.Degree,
			&edu.FieldOfStudy, &edu.StartYear, &edu.EndYear, &edu.GPA, &edu.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan education: %w", err)
		}
		entries = append(entries, edu)
	}

	return entries, rows.Err()
}

func (db *DB) DeleteEducation(id, userID int) error {
	result, err := db.Exec(db.rebind(`DELETE FROM education WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete education: %w", err)
	}
	return requireAffected(result, "education entry")
}

func (db *DB) CreateSkill(skill *Skill) error {
	query := `INSERT INTO skills (user_id, name, category) VALUES (?, ?, ?)`

	id, err := db.insertReturningID(query, skill.UserID, skill.Name, skill.Category)
	if err != nil {
		return fmt.Errorf("failed to create skill: %w", err)
	}

	skill.ID = id
	return nil
}

// CreateSkills inserts a batch of skills in one transaction, skipping names
// the user already has (case-insensitive). Used by the add-all flow that
// imports missing keywords from an optimization run.
func (db *DB) CreateSkills(userID int, skills []*Skill) (int, error) {
	existing, err := db.GetSkills(userID)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[normalizeSkillName(s.Name)] = true
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := db.rebind(`INSERT INTO skills (user_id, name, category) VALUES (?, ?, ?)`)
	added := 0
	for _, skill := range skills {
		key := normalizeSkillName(skill.Name)
		if key == "" || seen[key] {
			continue
		}
		if _, err := tx.Exec(query, userID, skill.Name, skill.Category); err != nil {
			return 0, fmt.Errorf("failed to create skill: %w", err)
		}
		seen[key] = true
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit skills: %w", err)
	}

	return added, nil
}

func (db *DB) GetSkills(userID int) ([]*Skill, error) {
	query := `SELECT id, user_id, name, category, created_at
			  FROM skills WHERE user_id = ? ORDER BY category, name`

	rows, err := db.Query(db.rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get skills: %w", err)
	}
	defer rows.Close()

	var skills []*Skill
	for rows.Next() {
		skill := &Skill{}
		if err := rows.Scan(&skill.ID, &skill.UserID, &skill.Name, &skill.Category, &skill.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, skill)
	}

	return skills, rows.Err()
}

func (db *DB) DeleteSkill(id, userID int) error {
	result, err := db.Exec(db.rebind(`DELETE FROM skills WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete skill: %w", err)
	}
	return requireAffected(result, "skill")
}

func (db *DB) CreateProject(project *Project) error {
	query := `INSERT INTO projects (user_id, name, description, tech_stack, url)
			  VALUES (?, ?, ?, ?, ?)`

	id, err := db.insertReturningID(query, project.UserID, project.Name,
		project.Description, project.TechStack, project.URL)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	project.ID = id
	return nil
}

func (db *DB) GetProjects(userID int) ([]*Project, error) {
	query := `SELECT id, user_id, name, description, tech_stack, url, created_at
			  FROM projects WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := db.Query(db.rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		project := &Project{}
		if err := rows.Scan(&project.ID, &project.UserID, &project.Name,
			&project.Description, &project.TechStack, &project.URL, &project.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	return projects, rows.Err()
}

func (db *DB) DeleteProject(id, userID int) error {
	result, err := db.Exec(db.rebind(`DELETE FROM projects WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return requireAffected(result, "project")
}

func (db *DB) CreateCertification(cert *Certification) error {
	query := `INSERT INTO certifications (user_id, name, issuer, issue_date, credential_url)
			  VALUES (?, ?, ?, ?, ?)`

	id, err := db.insertReturningID(query, cert.UserID, cert.Name, cert.Issuer,
		cert.IssueDate, cert.CredentialURL)
	if err != nil {
		return fmt.Errorf("failed to create certification: %w", err)
	}

	cert.ID = id
	return nil
}

func (db *DB) GetCertifications(userID int) ([]*Certification, error) {
	query := `SELECT id, user_id, name, issuer, issue_date, credential_url, created_at
			  FROM certifications WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := db.Query(db.rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get certifications: %w", err)
	}
	defer rows.Close()

	var certs []*Certification
	for rows.Next() {
		cert := &Certification{}
		if err := rows.Scan(&cert.ID, &cert.UserID, &cert.Name, &cert.Issuer,
			&cert.IssueDate, &cert.CredentialURL, &cert.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan certification: %w", err)
		}
		certs = append(certs, cert)
	}

	return certs, rows.Err()
}

func (db *DB) DeleteCertification(id, userID int) error {
	result, err := db.Exec(db.rebind(`DELETE FROM certifications WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete certification: %w", err)
	}
	return requireAffected(result, "certification")
}

// GetCompletionStatus reports how filled-in a user's profile is. A profile
// counts as complete when contact info is set and there is at least one
// experience, one education entry and one skill.
func (db *DB) GetCompletionStatus(userID int) (*CompletionStatus, error) {
	user, err := db.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}

	status := &CompletionStatus{
		HasContactInfo: user.FullName != "" && user.Phone != "",
	}

	counts := []struct {
		table string
		dest  *int
	}{
		{"experiences", &status.ExperienceCount},
		{"education", &status.EducationCount},
		{"skills", &status.SkillCount},
		{"projects", &status.ProjectCount},
		{"certifications", &status.CertificationCount},
	}

	for _, c := range counts {
		query := db.rebind(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_id = ?`, c.table))
		if err := db.QueryRow(query, userID).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}

	status.Complete = status.HasContactInfo &&
		status.ExperienceCount > 0 &&
		status.EducationCount > 0 &&
		status.SkillCount > 0

	return status, nil
}

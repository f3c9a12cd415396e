package database

import (
	"database/sql"
	"fmt"
	"time"
)

type JobDescription struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Resume is one optimization run: the ATS analysis and the rewritten
// sections, stored as JSON strings the way the optimizer produced them.
type Resume struct {
	ID                  int       `json:"id"`
	UserID              int       `json:"user_id"`
	JobDescriptionID    int       `json:"job_description_id"`
	ATSScore            int       `json:"ats_score"`
	MatchedKeywords     string    `json:"matched_keywords"`
	MissingKeywords     string    `json:"missing_keywords"`
	Recommendations     string    `json:"recommendations"`
	ContentAnalysis     string    `json:"content_analysis"`
	OptimizedSummary    string    `json:"optimized_summary"`
	OptimizedExperience string    `json:"optimized_experience"`
	OptimizedProjects   string    `json:"optimized_projects"`
	OptimizedSkills     string    `json:"optimized_skills"`
	PDFURL              string    `json:"pdf_url"`
	CreatedAt           time.Time `json:"created_at"`
}

// Feedback is a user-submitted bug report or feature request.
type Feedback struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Priority     string    `json:"priority"`
	Description  string    `json:"description"`
	ContactEmail string    `json:"contact_email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (db *DB) CreateJobDescription(jd *JobDescription) error {
	query := `INSERT INTO job_descriptions (user_id, title, company, content)
			  VALUES (?, ?, ?, ?)`

	id, err := db.insertReturningID(query, jd.UserID, jd.Title, jd.Company, jd.Content)
	if err != nil {
		return fmt.Errorf("failed to create job description: %w", err)
	}

	jd.ID = id
	return nil
}

func (db *DB) GetJobDescription(id, userID int) (*JobDescription, error) {
	query := `SELECT id, user_id, title, company, content, created_at
			  FROM job_descriptions WHERE id = ? AND user_id = ?`

	jd := &JobDescription{}
	err := db.QueryRow(db.rebind(query), id, userID).Scan(&jd.ID, &jd.UserID,
		&jd.Title, &jd.Company, &jd.Content, &jd.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job description: %w", err)
	}

	return jd, nil
}

func (db *DB) GetJobDescriptions(userID int) ([]*JobDescription, error) {
	query := `SELECT id, user_id, title, company, content, created_at
			  FROM job_descriptions WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := db.Query(db.rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job descriptions: %w", err)
	}
	defer rows.Close()

	var jds []*JobDescription
	for rows.Next() {
		jd := &JobDescription{}
		if err := rows.Scan(&jd.ID, &jd.UserID, &jd.Title, &jd.Company, &jd.Content, &jd.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job description: %w", err)
		}
		jds = append(jds, jd)
	}

	return jds, rows.Err()
}

func (db *DB) DeleteJobDescription(id, userID int) error {
	result, err := db.Exec(db.rebind(`DELETE FROM job_descriptions WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete job description: %w", err)
	}
	return requireAffected(result, "job description")
}

func (db *DB) CreateResume(resume *Resume) error {
	query := `INSERT INTO resumes (user_id, job_description_id, ats_score, matched_keywords, missing_keywords,
			  recommendations, content_analysis, optimized_summary, optimized_experience, optimized_projects,
			  optimized_skills, pdf_url)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := db.insertReturningID(query, resume.UserID, resume.JobDescriptionID,
		resume.ATSScore, resume.MatchedKeywords, resume.MissingKeywords,
		resume.Recommendations, resume.ContentAnalysis, resume.OptimizedSummary,
		resume.OptimizedExperience, resume.OptimizedProjects, resume.OptimizedSkills,
		resume.PDFURL)
	if err != nil {
		return fmt.Errorf("failed to create resume: %w", err)
	}

	resume.ID = id
	return nil
}

func (db *DB) GetResume(id, userID int) (*Resume, error) {
	query := `SELECT id, user_id, job_description_id, ats_score, matched_keywords, missing_keywords,
			  recommendations, content_analysis, optimized_summary, optimized_experience, optimized_projects,
			  optimized_skills, pdf_url, created_at
			  FROM resumes WHERE id = ? AND user_id = ?`

	resume := &Resume{}
	err := db.QueryRow(db.rebind(query), id, userID).Scan(&resume.ID, &resume.UserID,
		&resume.JobDescriptionID, &resume.ATSScore, &resume.MatchedKeywords,
		&resume.MissingKeywords, &resume.Recommendations, &resume.ContentAnalysis,
		&resume.OptimizedSummary, &resume.OptimizedExperience, &resume.OptimizedProjects,
		&resume.OptimizedSkills, &resume.PDFURL, &resume.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}

	return resume, nil
}

func (db *DB) GetResumes(userID int) ([]*Resume, error) {
	query := `SELECT id, user_id, job_description_id, ats_score, matched_keywords, missing_keywords,
			  recommendations, content_analysis, optimized_summary, optimized_experience, optimized_projects,
			  optimized_skills, pdf_url, created_at
			  FROM resumes WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := db.Query(db.rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get resumes: %w", err)
	}
	defer rows.Close()

	var resumes []*Resume
	for rows.Next() {
		resume := &Resume{}
		if err := rows.Scan(&resume.ID, &resume.UserID, &resume.JobDescriptionID,
			&resume.ATSScore, &resume.MatchedKeywords, &resume.MissingKeywords,
			&resume.Recommendations, &resume.ContentAnalysis, &resume.OptimizedSummary,
			&resume.OptimizedExperience, &resume.OptimizedProjects, &resume.OptimizedSkills,
			&resume.PDFURL, &resume.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		resumes = append(resumes, resume)
	}

	return resumes, rows.Err()
}

func (db *DB) UpdateResumePDFURL(id, userID int, pdfURL string) error {
	result, err := db.Exec(db.rebind(`UPDATE resumes SET pdf_url = ? WHERE id = ? AND user_id = ?`),
		pdfURL, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update resume pdf url: %w", err)
	}
	return requireAffected(result, "resume")
}

func (db *DB) CreateFeedback(fb *Feedback) error {
	query := `INSERT INTO feedback (user_id, type, title, priority, description, contact_email)
			  VALUES (?, ?, ?, ?, ?, ?)`

	id, err := db.insertReturningID(query, fb.UserID, fb.Type, fb.Title, fb.Priority, fb.Description, fb.ContactEmail)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}

	fb.ID = id
	return nil
}

func (db *DB) GetFeedback(userID int) ([]*Feedback, error) {
	query := `SELECT id, user_id, type, title, priority, description, contact_email, created_at
			  FROM feedback WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := db.Query(db.rebind(query), userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}
	defer rows.Close()

	var entries []*Feedback
	for rows.Next() {
		fb := &Feedback{}
		if err := rows.Scan(&fb.ID, &fb.UserID, &fb.Type, &fb.Title, &fb.Priority, &fb.Description, &fb.ContactEmail, &fb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		entries = append(entries, fb)
	}

	return entries, rows.Err()
}

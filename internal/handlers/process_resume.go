package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "resume-optimizer/internal/common/errors"
	"resume-optimizer/internal/common/logging"
	"resume-optimizer/internal/database"
	"resume-optimizer/internal/extract"
	"resume-optimizer/internal/optimizer"
)

// minResumeTextLength is the least extracted text worth sending to the
// parser; anything shorter is a scanned image or an empty template.
const minResumeTextLength = 50

type processResumeMetadata struct {
	Filename       string `json:"filename"`
	FileSize       int    `json:"file_size"`
	TextLength     int    `json:"text_length"`
	ProcessingTime int64  `json:"processing_time_ms"`
	AutoSaved      bool   `json:"auto_saved"`
}

type processResumeResponse struct {
	Message  string                `json:"message"`
	Profile  *optimizer.Profile    `json:"profile"`
	Metadata processResumeMetadata `json:"metadata"`
}

// HandleProcessResume imports an uploaded resume file: extract its text,
// parse it into structured profile data, and optionally persist the result
// as the user's profile in the same pass.
// @Summary Import a resume file
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Resume file (PDF or DOCX, max 5MB)"
// @Param auto_save formData string false "Persist the parsed profile (true/false)"
// @Success 200 {object} processResumeResponse
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /api/profile/import [post]
func (h *Handlers) HandleProcessResume(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	user, err := h.currentUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(extract.MaxFileSize); err != nil {
		h.writeError(w, apperrors.ValidationError("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, apperrors.ValidationError("resume file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to read uploaded file", err))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if err := extract.ValidateUpload(data, contentType, header.Filename); err != nil {
		h.writeError(w, err)
		return
	}

	text, err := extract.FromUpload(data, contentType)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if len(strings.TrimSpace(text)) < minResumeTextLength {
		h.writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "could not extract enough text from the file; try exporting the resume as a text-based PDF",
		})
		return
	}

	profile, err := h.optimizer.ParseResume(r.Context(), text)
	if err != nil {
		h.writeError(w, err)
		return
	}

	autoSave := r.FormValue("auto_save") == "true"
	if autoSave {
		if err := h.saveParsedProfile(user, profile); err != nil {
			h.writeError(w, err)
			return
		}
	}

	h.logger.Info("Resume imported",
		logging.Field{Key: "user_id", Value: user.ID},
		logging.Field{Key: "filename", Value: header.Filename},
		logging.Field{Key: "text_length", Value: len(text)},
		logging.Field{Key: "auto_saved", Value: autoSave},
	)

	h.writeJSON(w, http.StatusOK, &processResumeResponse{
		Message: "resume processed successfully",
		Profile: profile,
		Metadata: processResumeMetadata{
			Filename:       header.Filename,
			FileSize:       len(data),
			TextLength:     len(text),
			ProcessingTime: time.Since(start).Milliseconds(),
			AutoSaved:      autoSave,
		},
	})
}

// saveParsedProfile persists a parsed profile the same way the bulk save
// endpoint does: contact fields are only overwritten when the parser found
// a value, sections are appended, skills are deduplicated and categorized.
func (h *Handlers) saveParsedProfile(user *database.User, profile *optimizer.Profile) error {
	if profile.Name != "" {
		user.FullName = profile.Name
	}
	if profile.Phone != "" {
		user.Phone = profile.Phone
	}
	if profile.Linkedin != "" {
		user.LinkedinURL = profile.Linkedin
	}
	if profile.Github != "" {
		user.GithubURL = profile.Github
	}
	if err := h.db.UpdateUserProfile(user); err != nil {
		return apperrors.InternalError("failed to update contact info", err)
	}

	for _, entry := range profile.Experience {
		exp := &database.Experience{
			UserID:      user.ID,
			Company:     entry.Company,
			Title:       entry.Title,
			Location:    entry.Location,
			StartDate:   entry.StartDate,
			EndDate:     entry.EndDate,
			IsCurrent:   entry.IsCurrent,
			Description: entry.Description,
		}
		if err := h.db.CreateExperience(exp); err != nil {
			return apperrors.InternalError("failed to save experience", err)
		}
	}

	for _, entry := range profile.Education {
		edu := &database.Education{
			UserID:       user.ID,
			Institution:  entry.Institution,
			Degree:       entry.Degree,
			FieldOfStudy: entry.FieldOfStudy,
			StartYear:    entry.StartYear,
			EndYear:      entry.EndYear,
			GPA:          entry.GPA,
		}
		if err := h.db.CreateEducation(edu); err != nil {
			return apperrors.InternalError("failed to save education entry", err)
		}
	}

	if len(profile.Skills) > 0 {
		skills := make([]*database.Skill, 0, len(profile.Skills))
		for _, name := range profile.Skills {
			skills = append(skills, &database.Skill{
				UserID:   user.ID,
				Name:     name,
				Category: optimizer.CategoryFor(name),
			})
		}
		if _, err := h.db.CreateSkills(user.ID, skills); err != nil {
			return apperrors.InternalError("failed to save skills", err)
		}
	}

	for _, entry := range profile.Projects {
		project := &database.Project{
			UserID:      user.ID,
			Name:        entry.Name,
			Description: entry.Description,
			TechStack:   entry.TechStack,
			URL:         entry.URL,
		}
		if err := h.db.CreateProject(project); err != nil {
			return apperrors.InternalError("failed to save project", err)
		}
	}

	for _, entry := range profile.Certifications {
		cert := &database.Certification{
			UserID:    user.ID,
			Name:      entry.Name,
			Issuer:    entry.Issuer,
			IssueDate: entry.IssueDate,
		}
		if err := h.db.CreateCertification(cert); err != nil {
			return apperrors.InternalError("failed to save certification", err)
		}
	}

	return nil
}

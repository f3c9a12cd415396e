package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"resume-optimizer/internal/auth"
	apperrors "resume-optimizer/internal/common/errors"
	"resume-optimizer/internal/database"
	"resume-optimizer/internal/optimizer"
)

type optimizeRequest struct {
	JobDescriptionID int `json:"job_description_id" validate:"required,min=1"`
}

type optimizeResponse struct {
	Resume *database.Resume  `json:"resume"`
	Result *optimizer.Result `json:"result"`
}

type exportResponse struct {
	PDFURL string `json:"pdf_url"`
}

// HandleOptimize runs the optimization chain against a stored job description
// @Summary Optimize resume
// @Description Runs the profile through the AI optimization chain and stores the result
// @Tags resumes
// @Accept json
// @Produce json
// @Param request body optimizeRequest true "Target job description"
// @Success 201 {object} optimizeResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/resumes/optimize [post]
func (h *Handlers) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req optimizeRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	status, err := h.db.GetCompletionStatus(user.ID)
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to load completion status", err))
		return
	}
	if !status.Complete {
		h.writeError(w, apperrors.ValidationError("profile is incomplete: add contact info, experience, education and skills first"))
		return
	}

	jd, err := h.db.GetJobDescription(req.JobDescriptionID, user.ID)
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to get job description", err))
		return
	}
	if jd == nil {
		h.writeError(w, apperrors.NotFoundError("job description"))
		return
	}

	profile, err := h.buildProfile(user)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.optimizer.Optimize(r.Context(), profile, jd.Content)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resume, err := resumeRecord(user.ID, jd.ID, result)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.db.CreateResume(resume); err != nil {
		h.writeError(w, apperrors.InternalError("failed to store resume", err))
		return
	}

	h.writeJSON(w, http.StatusCreated, optimizeResponse{Resume: resume, Result: result})
}

// HandleListResumes lists past optimization runs
// @Summary List resumes
// @Tags resumes
// @Produce json
// @Success 200 {array} database.Resume
// @Router /api/resumes [get]
func (h *Handlers) HandleListResumes(w http.ResponseWriter, r *http.Request) {
	resumes, err := h.db.GetResumes(auth.UserID(r))
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to list resumes", err))
		return
	}
	if resumes == nil {
		resumes = []*database.Resume{}
	}
	h.writeJSON(w, http.StatusOK, resumes)
}

// HandleGetResume fetches one optimization run
// @Summary Get resume
// @Tags resumes
// @Produce json
// @Param id path int true "Resume ID"
// @Success 200 {object} database.Resume
// @Failure 404 {object} map[string]string
// @Router /api/resumes/{id} [get]
func (h *Handlers) HandleGetResume(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	resume, err := h.db.GetResume(id, auth.UserID(r))
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to get resume", err))
		return
	}
	if resume == nil {
		h.writeError(w, apperrors.NotFoundError("resume"))
		return
	}

	h.writeJSON(w, http.StatusOK, resume)
}

// HandleExportPDF renders a stored resume as a PDF
// @Summary Export resume PDF
// @Tags resumes
// @Produce json
// @Param id path int true "Resume ID"
// @Success 200 {object} exportResponse
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/resumes/{id}/export [post]
func (h *Handlers) HandleExportPDF(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	record, err := h.db.GetResume(id, user.ID)
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to get resume", err))
		return
	}
	if record == nil {
		h.writeError(w, apperrors.NotFoundError("resume"))
		return
	}

	resume, err := assembleResume(user, record)
	if err != nil {
		h.writeError(w, err)
		return
	}

	education, err := h.db.GetEducation(user.ID)
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to load education", err))
		return
	}
	for _, edu := range education {
		resume.Education = append(resume.Education, optimizer.EducationEntry{
			Institution:  edu.Institution,
			Degree:       edu.Degree,
			FieldOfStudy: edu.FieldOfStudy,
			StartYear:    edu.StartYear,
			EndYear:      edu.EndYear,
		})
	}

	filename := fmt.Sprintf("resume_%d_%s.pdf", record.ID, uuid.New().String())
	pdfURL, err := h.pdf.Render(r.Context(), resume, filename)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.db.UpdateResumePDFURL(record.ID, user.ID, pdfURL); err != nil {
		h.writeError(w, apperrors.InternalError("failed to store pdf url", err))
		return
	}

	h.writeJSON(w, http.StatusOK, exportResponse{PDFURL: pdfURL})
}

// buildProfile flattens the stored profile sections into the optimizer's
// input shape.
func (h *Handlers) buildProfile(user *database.User) (*optimizer.Profile, error) {
	profile := &optimizer.Profile{
		Name:           user.FullName,
		Email:          user.Email,
		Phone:          user.Phone,
		Linkedin:       user.LinkedinURL,
		Github:         user.GithubURL,
		Education:      []optimizer.EducationEntry{},
		Experience:     []optimizer.ExperienceEntry{},
		Projects:       []optimizer.ProjectEntry{},
		Skills:         []string{},
		Certifications: []optimizer.CertificationEntry{},
	}

	education, err := h.db.GetEducation(user.ID)
	if err != nil {
		return nil, apperrors.InternalError("failed to load education", err)
	}
	for _, edu := range education {
		profile.Education = append(profile.Education, optimizer.EducationEntry{
			Institution:  edu.Institution,
			Degree:       edu.Degree,
			FieldOfStudy: edu.FieldOfStudy,
			StartYear:    edu.StartYear,
			EndYear:      edu.EndYear,
			GPA:          edu.GPA,
		})
	}

	experiences, err := h.db.GetExperiences(user.ID)
	if err != nil {
		return nil, apperrors.InternalError("failed to load experiences", err)
	}
	for _, exp := range experiences {
		profile.Experience = append(profile.Experience, optimizer.ExperienceEntry{
			Company:     exp.Company,
			Title:       exp.Title,
			Location:    exp.Location,
			StartDate:   exp.StartDate,
			EndDate:     exp.EndDate,
			IsCurrent:   exp.IsCurrent,
			Description: exp.Description,
		})
	}

	projects, err := h.db.GetProjects(user.ID)
	if err != nil {
		return nil, apperrors.InternalError("failed to load projects", err)
	}
	for _, project := range projects {
		profile.Projects = append(profile.Projects, optimizer.ProjectEntry{
			Name:        project.Name,
			Description: project.Description,
			TechStack:   project.TechStack,
			URL:         project.URL,
		})
	}

	skills, err := h.db.GetSkills(user.ID)
	if err != nil {
		return nil, apperrors.InternalError("failed to load skills", err)
	}
	for _, skill := range skills {
		profile.Skills = append(profile.Skills, skill.Name)
	}

	certifications, err := h.db.GetCertifications(user.ID)
	if err != nil {
		return nil, apperrors.InternalError("failed to load certifications", err)
	}
	for _, cert := range certifications {
		profile.Certifications = append(profile.Certifications, optimizer.CertificationEntry{
			Name:      cert.Name,
			Issuer:    cert.Issuer,
			IssueDate: cert.IssueDate,
		})
	}

	return profile, nil
}

// resumeRecord serializes an optimization result into its storage row.
func resumeRecord(userID, jobDescriptionID int, result *optimizer.Result) (*database.Resume, error) {
	fields := map[string]interface{}{
		"matched_keywords":     result.Analysis.MatchedKeywords,
		"missing_keywords":     result.Analysis.MissingKeywords,
		"recommendations":      result.Analysis.Recommendations,
		"content_analysis":     result.Analysis.ContentAnalysis,
		"optimized_experience": result.OptimizedResume.Experience,
		"optimized_projects":   result.OptimizedResume.Projects,
		"optimized_skills":     result.OptimizedResume.Skills,
	}

	encoded := make(map[string]string, len(fields))
	for name, value := range fields {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, apperrors.InternalError(fmt.Sprintf("failed to encode %s", name), err)
		}
		encoded[name] = string(raw)
	}

	return &database.Resume{
		UserID:              userID,
		JobDescriptionID:    jobDescriptionID,
		ATSScore:            int(result.Analysis.ATSScore),
		MatchedKeywords:     encoded["matched_keywords"],
		MissingKeywords:     encoded["missing_keywords"],
		Recommendations:     encoded["recommendations"],
		ContentAnalysis:     encoded["content_analysis"],
		OptimizedSummary:    result.OptimizedResume.Summary,
		OptimizedExperience: encoded["optimized_experience"],
		OptimizedProjects:   encoded["optimized_projects"],
		OptimizedSkills:     encoded["optimized_skills"],
	}, nil
}

// assembleResume rebuilds an OptimizedResume from its storage row, pulling
// current contact info and education from the profile.
func assembleResume(user *database.User, record *database.Resume) (*optimizer.OptimizedResume, error) {
	resume := &optimizer.OptimizedResume{
		Name:     user.FullName,
		Email:    user.Email,
		Phone:    user.Phone,
		Linkedin: user.LinkedinURL,
		Github:   user.GithubURL,
		Summary:  record.OptimizedSummary,
	}

	sections := map[string]struct {
		raw  string
		dest interface{}
	}{
		"experience": {record.OptimizedExperience, &resume.Experience},
		"projects":   {record.OptimizedProjects, &resume.Projects},
		"skills":     {record.OptimizedSkills, &resume.Skills},
	}
	for name, section := range sections {
		if section.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(section.raw), section.dest); err != nil {
			return nil, apperrors.InternalError(fmt.Sprintf("failed to decode stored %s", name), err)
		}
	}

	return resume, nil
}

package handlers

import (
	"net/http"

	"resume-optimizer/internal/auth"
	apperrors "resume-optimizer/internal/common/errors"
	"resume-optimizer/internal/database"
	"resume-optimizer/internal/optimizer"
)

type contactRequest struct {
	FullName    string `json:"full_name" validate:"required,max=200"`
	Phone       string `json:"phone" validate:"max=50"`
	LinkedinURL string `json:"linkedin_url" validate:"omitempty,url"`
	GithubURL   string `json:"github_url" validate:"omitempty,url"`
}

type experienceRequest struct {
	Company     string `json:"company" validate:"required,max=200"`
	Title       string `json:"title" validate:"required,max=200"`
	Location    string `json:"location" validate:"max=200"`
	StartDate   string `json:"start_date" validate:"max=20"`
	EndDate     string `json:"end_date" validate:"max=20"`
	IsCurrent   bool   `json:"is_current"`
	Description string `json:"description" validate:"max=5000"`
}

type educationRequest struct {
	Institution  string `json:"institution" validate:"required,max=200"`
	Degree       string `json:"degree" validate:"max=200"`
	FieldOfStudy string `json:"field_of_study" validate:"max=200"`
	StartYear    string `json:"start_year" validate:"max=10"`
	EndYear      string `json:"end_year" validate:"max=10"`
	GPA          string `json:"gpa" validate:"max=10"`
}

type skillRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Category string `json:"category" validate:"omitempty,oneof=languages frameworks tools libraries"`
}

type projectRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	TechStack   string `json:"tech_stack" validate:"max=500"`
	URL         string `json:"url" validate:"omitempty,url"`
}

type certificationRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	Issuer        string `json:"issuer" validate:"max=200"`
	IssueDate     string `json:"issue_date" validate:"max=20"`
	CredentialURL string `json:"credential_url" validate:"omitempty,url"`
}

type saveProfileRequest struct {
	Contact        contactRequest         `json:"contact" validate:"required"`
	Experiences    []experienceRequest    `json:"experiences" validate:"dive"`
	Education      []educationRequest     `json:"education" validate:"dive"`
	Skills         []string               `json:"skills" validate:"dive,max=100"`
	Projects       []projectRequest       `json:"projects" validate:"dive"`
	Certifications []certificationRequest `json:"certifications" validate:"dive"`
}

type profileResponse struct {
	User           *database.User             `json:"user"`
	Experiences    []*database.Experience     `json:"experiences"`
	Education      []*database.Education      `json:"education"`
	Skills         []*database.Skill          `json:"skills"`
	Projects       []*database.Project        `json:"projects"`
	Certifications []*database.Certification  `json:"certifications"`
	Completion     *database.CompletionStatus `json:"completion"`
}

// HandleGetProfile returns the full profile with all sections
// @Summary Get profile
// @Tags profile
// @Produce json
// @Success 200 {object} profileResponse
// @Failure 401 {object} map[string]string
// @Router /api/profile [get]
func (h *Handlers) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := &profileResponse{User: user}

	if response.Experiences, err = h.db.GetExperiences(user.ID); err == nil {
		if response.Education, err = h.db.GetEducation(user.ID); err == nil {
			if response.Skills, err = h.db.GetSkills(user.ID); err == nil {
				if response.Projects, err = h.db.GetProjects(user.ID); err == nil {
					if response.Certifications, err = h.db.GetCertifications(user.ID); err == nil {
						response.Completion, err = h.db.GetCompletionStatus(user.ID)
					}
				}
			}
		}
	}
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to load profile", err))
		return
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleSaveProfile persists contact info and every profile section from one
// form submit. Sections are validated up front; list entries are appended,
// skills are deduplicated against existing ones and auto-categorized.
// @Summary Save full profile
// @Tags profile
// @Accept json
// @Produce json
// @Param request body saveProfileRequest true "Full profile"
// @Success 200 {object} profileResponse
// @Failure 400 {object} map[string]string
// @Router /api/profile [put]
func (h *Handlers) HandleSaveProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req saveProfileRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	user.FullName = req.Contact.FullName
	user.Phone = req.Contact.Phone
	user.LinkedinURL = req.Contact.LinkedinURL
	user.GithubURL = req.Contact.GithubURL
	if err := h.db.UpdateUserProfile(user); err != nil {
		h.writeError(w, apperrors.InternalError("failed to update contact info", err))
		return
	}

	for _, entry := range req.Experiences {
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
			h.writeError(w, apperrors.InternalError("failed to save experience", err))
			return
		}
	}

	for _, entry := range req.Education {
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
			h.writeError(w, apperrors.InternalError("failed to save education entry", err))
			return
		}
	}

	if len(req.Skills) > 0 {
		skills := make([]*database.Skill, 0, len(req.Skills))
		for _, name := range req.Skills {
			skills = append(skills, &database.Skill{
				UserID:   user.ID,
				Name:     name,
				Category: optimizer.CategoryFor(name),
			})
		}
		if _, err := h.db.CreateSkills(user.ID, skills); err != nil {
			h.writeError(w, apperrors.InternalError("failed to save skills", err))
			return
		}
	}

	for _, entry := range req.Projects {
		project := &database.Project{
			UserID:      user.ID,
			Name:        entry.Name,
			Description: entry.Description,
			TechStack:   entry.TechStack,
			URL:         entry.URL,
		}
		if err := h.db.CreateProject(project); err != nil {
			h.writeError(w, apperrors.InternalError("failed to save project", err))
			return
		}
	}

	for _, entry := range req.Certifications {
		cert := &database.Certification{
			UserID:        user.ID,
			Name:          entry.Name,
			Issuer:        entry.Issuer,
			IssueDate:     entry.IssueDate,
			CredentialURL: entry.CredentialURL,
		}
		if err := h.db.CreateCertification(cert); err != nil {
			h.writeError(w, apperrors.InternalError("failed to save certification", err))
			return
		}
	}

	h.HandleGetProfile(w, r)
}

// HandleUpdateContact updates name and contact details
// @Summary Update contact info
// @Tags profile
// @Accept json
// @Produce json
// @Param request body contactRequest true "Contact details"
// @Success 200 {object} database.User
// @Failure 400 {object} map[string]string
// @Router /api/profile/contact [put]
func (h *Handlers) HandleUpdateContact(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req contactRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	user.FullName = req.FullName
	user.Phone = req.Phone
	user.LinkedinURL = req.LinkedinURL
	user.GithubURL = req.GithubURL

	if err := h.db.UpdateUserProfile(user); err != nil {
		h.writeError(w, apperrors.InternalError("failed to update contact info", err))
		return
	}

	h.writeJSON(w, http.StatusOK, user)
}

// HandleCompletionStatus reports how resume-ready the profile is
// @Summary Profile completion status
// @Tags profile
// @Produce json
// @Success 200 {object} database.CompletionStatus
// @Router /api/profile/status [get]
func (h *Handlers) HandleCompletionStatus(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r)

	status, err := h.db.GetCompletionStatus(userID)
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to load completion status", err))
		return
	}

	h.writeJSON(w, http.StatusOK, status)
}

// HandleCreateExperience adds a work experience entry
// @Summary Add experience
// @Tags profile
// @Accept json
// @Produce json
// @Param request body experienceRequest true "Experience"
// @Success 201 {object} database.Experience
// @Router /api/profile/experiences [post]
func (h *Handlers) HandleCreateExperience(w http.ResponseWriter, r *http.Request) {
	var req experienceRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	exp := &database.Experience{
		UserID:      auth.UserID(r),
		Company:     req.Company,
		Title:       req.Title,
		Location:    req.Location,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsCurrent:   req.IsCurrent,
		Description: req.Description,
	}
	if err := h.db.CreateExperience(exp); err != nil {
		h.writeError(w, apperrors.InternalError("failed to create experience", err))
		return
	}

	h.writeJSON(w, http.StatusCreated, exp)
}

// HandleListExperiences lists the user's work experience
// @Summary List experiences
// @Tags profile
// @Produce json
// @Success 200 {array} database.Experience
// @Router /api/profile/experiences [get]
func (h *Handlers) HandleListExperiences(w http.ResponseWriter, r *http.Request) {
	experiences, err := h.db.GetExperiences(auth.UserID(r))
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to list experiences", err))
		return
	}
	if experiences == nil {
		experiences = []*database.Experience{}
	}
	h.writeJSON(w, http.StatusOK, experiences)
}

// HandleUpdateExperience updates a work experience entry
// @Summary Update experience
// @Tags profile
// @Accept json
// @Produce json
// @Param id path int true "Experience ID"
// @Param request body experienceRequest true "Experience"
// @Success 200 {object} database.Experience
// @Failure 404 {object} map[string]string
// @Router /api/profile/experiences/{id} [put]
func (h *Handlers) HandleUpdateExperience(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req experienceRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	exp := &database.Experience{
		ID:          id,
		UserID:      auth.UserID(r),
		Company:     req.Company,
		Title:       req.Title,
		Location:    req.Location,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsCurrent:   req.IsCurrent,
		Description: req.Description,
	}
	if err := h.db.UpdateExperience(exp); err != nil {
		h.writeError(w, apperrors.NotFoundError("experience"))
		return
	}

	h.writeJSON(w, http.StatusOK, exp)
}

// HandleDeleteExperience removes a work experience entry
// @Summary Delete experience
// @Tags profile
// @Param id path int true "Experience ID"
// @Success 204 {string} string ""
// @Failure 404 {object} map[string]string
// @Router /api/profile/experiences/{id} [delete]
func (h *Handlers) HandleDeleteExperience(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.db.DeleteExperience(id, auth.UserID(r)); err != nil {
		h.writeError(w, apperrors.NotFoundError("experience"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleCreateEducation adds an education entry
// @Summary Add education
// @Tags profile
// @Accept json
// @Produce json
// @Param request body educationRequest true "Education"
// @Success 201 {object} database.Education
// @Router /api/profile/education [post]
func (h *Handlers) HandleCreateEducation(w http.ResponseWriter, r *http.Request) {
	var req educationRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	edu := &database.Education{
		UserID:       auth.UserID(r),
		Institution:  req.Institution,
		Degree:       req.Degree,
		FieldOfStudy: req.FieldOfStudy,
		StartYear:    req.StartYear,
		EndYear:      req.EndYear,
		GPA:          req.GPA,
	}
	if err := h.db.CreateEducation(edu); err != nil {
		h.writeError(w, apperrors.InternalError("failed to create education entry", err))
		return
	}

	h.writeJSON(w, http.StatusCreated, edu)
}

// HandleListEducation lists education entries
// @Summary List education
// @Tags profile
// @Produce json
// @Success 200 {array} database.Education
// @Router /api/profile/education [get]
func (h *Handlers) HandleListEducation(w http.ResponseWriter, r *http.Request) {
	entries, err := h.db.GetEducation(auth.UserID(r))
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to list education", err))
		return
	}
	if entries == nil {
		entries = []*database.Education{}
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// HandleDeleteEducation removes an education entry
// @Summary Delete education
// @Tags profile
// @Param id path int true "Education ID"
// @Success 204 {string} string ""
// @Router /api/profile/education/{id} [delete]
func (h *Handlers) HandleDeleteEducation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.db.DeleteEducation(id, auth.UserID(r)); err != nil {
		h.writeError(w, apperrors.NotFoundError("education entry"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleCreateSkill adds a skill
// @Summary Add skill
// @Tags profile
// @Accept json
// @Produce json
// @Param request body skillRequest true "Skill"
// @Success 201 {object} database.Skill
// @Router /api/profile/skills [post]
func (h *Handlers) HandleCreateSkill(w http.ResponseWriter, r *http.Request) {
	var req skillRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if req.Category == "" {
		req.Category = "tools"
	}

	skill := &database.Skill{
		UserID:   auth.UserID(r),
		Name:     req.Name,
		Category: req.Category,
	}
	if err := h.db.CreateSkill(skill); err != nil {
		h.writeError(w, apperrors.InternalError("failed to create skill", err))
		return
	}

	h.writeJSON(w, http.StatusCreated, skill)
}

// HandleListSkills lists skills grouped by category
// @Summary List skills
// @Tags profile
// @Produce json
// @Success 200 {array} database.Skill
// @Router /api/profile/skills [get]
func (h *Handlers) HandleListSkills(w http.ResponseWriter, r *http.Request) {
	skills, err := h.db.GetSkills(auth.UserID(r))
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to list skills", err))
		return
	}
	if skills == nil {
		skills = []*database.Skill{}
	}
	h.writeJSON(w, http.StatusOK, skills)
}

// HandleDeleteSkill removes a skill
// @Summary Delete skill
// @Tags profile
// @Param id path int true "Skill ID"
// @Success 204 {string} string ""
// @Router /api/profile/skills/{id} [delete]
func (h *Handlers) HandleDeleteSkill(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.db.DeleteSkill(id, auth.UserID(r)); err != nil {
		h.writeError(w, apperrors.NotFoundError("skill"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleCreateProject adds a project
// @Summary Add project
// @Tags profile
// @Accept json
// @Produce json
// @Param request body projectRequest true "Project"
// @Success 201 {object} database.Project
// @Router /api/profile/projects [post]
func (h *Handlers) HandleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	project := &database.Project{
		UserID:      auth.UserID(r),
		Name:        req.Name,
		Description: req.Description,
		TechStack:   req.TechStack,
		URL:         req.URL,
	}
	if err := h.db.CreateProject(project); err != nil {
		h.writeError(w, apperrors.InternalError("failed to create project", err))
		return
	}

	h.writeJSON(w, http.StatusCreated, project)
}

// HandleListProjects lists projects
// @Summary List projects
// @Tags profile
// @Produce json
// @Success 200 {array} database.Project
// @Router /api/profile/projects [get]
func (h *Handlers) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.db.GetProjects(auth.UserID(r))
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to list projects", err))
		return
	}
	if projects == nil {
		projects = []*database.Project{}
	}
	h.writeJSON(w, http.StatusOK, projects)
}

// HandleDeleteProject removes a project
// @Summary Delete project
// @Tags profile
// @Param id path int true "Project ID"
// @Success 204 {string} string ""
// @Router /api/profile/projects/{id} [delete]
func (h *Handlers) HandleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.db.DeleteProject(id, auth.UserID(r)); err != nil {
		h.writeError(w, apperrors.NotFoundError("project"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleCreateCertification adds a certification
// @Summary Add certification
// @Tags profile
// @Accept json
// @Produce json
// @Param request body certificationRequest true "Certification"
// @Success 201 {object} database.Certification
// @Router /api/profile/certifications [post]
func (h *Handlers) HandleCreateCertification(w http.ResponseWriter, r *http.Request) {
	var req certificationRequest
	if err := h.decodeAndValidate(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	cert := &database.Certification{
		UserID:        auth.UserID(r),
		Name:          req.Name,
		Issuer:        req.Issuer,
		IssueDate:     req.IssueDate,
		CredentialURL: req.CredentialURL,
	}
	if err := h.db.CreateCertification(cert); err != nil {
		h.writeError(w, apperrors.InternalError("failed to create certification", err))
		return
	}

	h.writeJSON(w, http.StatusCreated, cert)
}

// HandleListCertifications lists certifications
// @Summary List certifications
// @Tags profile
// @Produce json
// @Success 200 {array} database.Certification
// @Router /api/profile/certifications [get]
func (h *Handlers) HandleListCertifications(w http.ResponseWriter, r *http.Request) {
	certs, err := h.db.GetCertifications(auth.UserID(r))
	if err != nil {
		h.writeError(w, apperrors.InternalError("failed to list certifications", err))
		return
	}
	if certs == nil {
		certs = []*database.Certification{}
	}
	h.writeJSON(w, http.StatusOK, certs)
}

// HandleDeleteCertification removes a certification
// @Summary Delete certification
// @Tags profile
// @Param id path int true "Certification ID"
// @Success 204 {string} string ""
// @Router /api/profile/certifications/{id} [delete]
func (h *Handlers) HandleDeleteCertification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.db.DeleteCertification(id, auth.UserID(r)); err != nil {
		h.writeError(w, apperrors.NotFoundError("certification"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

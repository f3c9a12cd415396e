// Package optimizer runs the three-stage resume optimization chain: parse
// the job description, score the profile against it, then rewrite the
// resume sections with the analysis in hand.
package optimizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"resume-optimizer/internal/common/errors"
	"resume-optimizer/internal/common/logging"
)

// Cache stores finished optimization results so identical profile/job
// pairs do not burn AI quota twice. Satisfied by the Redis client.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

const cacheTTL = time.Hour

// Profile is the user data fed into the optimization chain.
type Profile struct {
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	Phone          string               `json:"phone"`
	Linkedin       string               `json:"linkedin"`
	Github         string               `json:"github"`
	Education      []EducationEntry     `json:"education"`
	Experience     []ExperienceEntry    `json:"experience"`
	Projects       []ProjectEntry       `json:"projects"`
	Skills         []string             `json:"skills"`
	Certifications []CertificationEntry `json:"certifications"`
}

type EducationEntry struct {
	Institution  string `json:"institution"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"field_of_study"`
	StartYear    string `json:"start_year"`
	EndYear      string `json:"end_year"`
	GPA          string `json:"gpa,omitempty"`
}

type ExperienceEntry struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	IsCurrent   bool   `json:"is_current"`
	Description string `json:"description"`
}

type ProjectEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TechStack   string `json:"tech_stack"`
	URL         string `json:"url,omitempty"`
}

type CertificationEntry struct {
	Name      string `json:"name"`
	Issuer    string `json:"issuer"`
	IssueDate string `json:"issue_date"`
}

// Analysis is the ATS scoring stage output.
type Analysis struct {
	ATSScore        float64         `json:"ats_score"`
	MatchedKeywords []string        `json:"matched_keywords"`
	MissingKeywords []string        `json:"missing_keywords"`
	Recommendations []string        `json:"recommendations"`
	ContentAnalysis ContentAnalysis `json:"content_analysis"`
}

type ContentAnalysis struct {
	ExperienceAlignment float64 `json:"experience_alignment"`
	SkillsAlignment     float64 `json:"skills_alignment"`
	ProjectRelevance    float64 `json:"project_relevance"`
}

// RewrittenSections is the rewrite stage output before skill
// categorization.
type RewrittenSections struct {
	Summary    string              `json:"summary"`
	Experience []ExperienceSection `json:"experience"`
	Projects   []ProjectSection    `json:"projects"`
	Skills     []string            `json:"skills"`
}

type ExperienceSection struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Duration     string   `json:"duration"`
	Achievements []string `json:"achievements"`
}

type ProjectSection struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Achievements []string `json:"achievements"`
}

// CategorizedSkills groups flat skill names into resume sections.
type CategorizedSkills struct {
	Languages  []string `json:"languages"`
	Frameworks []string `json:"frameworks"`
	Tools      []string `json:"tools"`
	Libraries  []string `json:"libraries"`
}

// OptimizedResume is the final assembled resume: contact info and education
// from the profile, rewritten sections from the chain.
type OptimizedResume struct {
	Name       string              `json:"name"`
	Email      string              `json:"email"`
	Phone      string              `json:"phone"`
	Linkedin   string              `json:"linkedin"`
	Github     string              `json:"github"`
	Summary    string              `json:"summary"`
	Education  []EducationEntry    `json:"education"`
	Experience []ExperienceSection `json:"experience"`
	Projects   []ProjectSection    `json:"projects"`
	Skills     CategorizedSkills   `json:"skills"`
}

// Result is the full output of one optimization run.
type Result struct {
	ParsedJD        string          `json:"parsed_jd"`
	Analysis        Analysis        `json:"analysis"`
	OptimizedResume OptimizedResume `json:"optimized_resume"`
}

// Service runs the optimization chain against an AI client.
type Service struct {
	ai     AIClient
	cache  Cache
	logger logging.Logger
}

// NewService creates an optimization service. cache may be nil, which
// disables result caching.
func NewService(ai AIClient, cache Cache) *Service {
	return &Service{
		ai:     ai,
		cache:  cache,
		logger: logging.GetGlobalLogger(),
	}
}

// Optimize runs the three chain stages in order. Each stage feeds the next:
// the parsed job description drives both the ATS analysis and the rewrite.
func (s *Service) Optimize(ctx context.Context, profile *Profile, jobDescription string) (*Result, error) {
	userData, err := json.Marshal(profile)
	if err != nil {
		return nil, errors.InternalError("failed to encode profile", err)
	}

	cacheKey := resultCacheKey(userData, jobDescription)
	if s.cache != nil {
		var cached Result
		if err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil {
			s.logger.Debug("Optimization cache hit", logging.Field{Key: "key", Value: cacheKey})
			return &cached, nil
		}
	}

	// Stage 1: extract structured requirements from the job description
	parsedJD, err := s.ai.GenerateContent(ctx, fmt.Sprintf(jdParserPrompt, jobDescription))
	if err != nil {
		return nil, err
	}

	// Stage 2: score the profile against the parsed requirements
	analysisRaw, err := s.ai.GenerateContent(ctx, fmt.Sprintf(atsPrompt, userData, parsedJD))
	if err != nil {
		return nil, err
	}

	var analysis Analysis
	if err := decodeModelJSON(analysisRaw, &analysis); err != nil {
		s.logger.Warn("Failed to parse ATS analysis, continuing with empty analysis", logging.Err(err))
	}
	normalizeAnalysis(&analysis)

	// Stage 3: rewrite the resume sections using the same parsed requirements
	rewriteRaw, err := s.ai.GenerateContent(ctx, fmt.Sprintf(rewritePrompt, userData, parsedJD))
	if err != nil {
		return nil, err
	}

	var sections RewrittenSections
	if err := decodeModelJSON(rewriteRaw, &sections); err != nil {
		s.logger.Warn("Failed to parse rewritten sections, continuing with empty sections", logging.Err(err))
	}

	result := &Result{
		ParsedJD: parsedJD,
		Analysis: analysis,
		OptimizedResume: OptimizedResume{
			Name:       profile.Name,
			Email:      profile.Email,
			Phone:      profile.Phone,
			Linkedin:   profile.Linkedin,
			Github:     profile.Github,
			Summary:    sections.Summary,
			Education:  profile.Education,
			Experience: sections.Experience,
			Projects:   sections.Projects,
			Skills:     CategorizeSkills(sections.Skills),
		},
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, result, cacheTTL); err != nil {
			s.logger.Warn("Failed to cache optimization result", logging.Err(err))
		}
	}

	return result, nil
}

// ParseResume extracts a structured profile from raw resume text, for
// seeding a profile from an uploaded resume file. Unlike the chain stages,
// a response the model mangles is an error here: there is nothing useful to
// return without the parsed fields.
func (s *Service) ParseResume(ctx context.Context, resumeText string) (*Profile, error) {
	raw, err := s.ai.GenerateContent(ctx, fmt.Sprintf(resumeParsePrompt, resumeText))
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := decodeModelJSON(raw, &profile); err != nil {
		return nil, errors.UpstreamError("resume parser", err)
	}

	if profile.Skills == nil {
		profile.Skills = []string{}
	}

	return &profile, nil
}

// normalizeAnalysis fills nil slices and clamps the score to 0-100 so
// downstream consumers never see nulls or out-of-range values.
func normalizeAnalysis(a *Analysis) {
	if a.MatchedKeywords == nil {
		a.MatchedKeywords = []string{}
	}
	if a.MissingKeywords == nil {
		a.MissingKeywords = []string{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	if a.ATSScore < 0 {
		a.ATSScore = 0
	}
	if a.ATSScore > 100 {
		a.ATSScore = 100
	}
}

func resultCacheKey(userData []byte, jobDescription string) string {
	h := sha256.New()
	h.Write(userData)
	h.Write([]byte{0})
	h.Write([]byte(jobDescription))
	return "optimizer:result:" + hex.EncodeToString(h.Sum(nil))
}

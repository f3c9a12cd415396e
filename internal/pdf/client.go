// Package pdf renders optimized resumes through the external PDF service.
package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"resume-optimizer/internal/common/errors"
	"resume-optimizer/internal/common/logging"
	"resume-optimizer/internal/optimizer"
)

// Renderer generates a PDF for an optimized resume and returns its URL.
// Satisfied by Client and by test fakes.
type Renderer interface {
	Render(ctx context.Context, resume *optimizer.OptimizedResume, filename string) (string, error)
}

// Client calls the PDF service's generate endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
	logger     logging.Logger
}

// ResumeRequest is the PDF service's wire format.
type ResumeRequest struct {
	FullName          string            `json:"full_name"`
	Email             string            `json:"email"`
	PhoneNumber       string            `json:"phone_number,omitempty"`
	LinkedinURL       string            `json:"linkedin_url,omitempty"`
	GithubURL         string            `json:"github_url,omitempty"`
	EducationEntries  []EducationEntry  `json:"education_entries"`
	ExperienceEntries []ExperienceEntry `json:"experience_entries"`
	ProjectEntries    []ProjectEntry    `json:"project_entries"`
	Languages         []string          `json:"languages"`
	Frameworks        []string          `json:"frameworks"`
	DeveloperTools    []string          `json:"developer_tools"`
	Libraries         []string          `json:"libraries"`
	OutputFilename    string            `json:"output_filename,omitempty"`
}

type EducationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	DateRange   string `json:"date_range"`
	Location    string `json:"location,omitempty"`
}

type ExperienceEntry struct {
	Title            string   `json:"title"`
	Dates            string   `json:"dates"`
	Organization     string   `json:"organization"`
	Responsibilities []string `json:"responsibilities"`
	Location         string   `json:"location,omitempty"`
}

type ProjectEntry struct {
	Name         string   `json:"name"`
	Technologies string   `json:"technologies"`
	Details      []string `json:"details"`
	DateRange    string   `json:"date_range,omitempty"`
}

type generateResponse struct {
	Status string `json:"status"`
	PDFURL string `json:"pdf_url"`
}

// NewClient creates a PDF service client.
func NewClient(baseURL string) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "pdf-service",
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		breaker:    breaker,
		logger:     logging.GetGlobalLogger(),
	}
}

// Render converts an optimized resume into the service's wire format,
// requests a PDF and returns the URL it was published under.
func (c *Client) Render(ctx context.Context, resume *optimizer.OptimizedResume, filename string) (string, error) {
	request := buildRequest(resume, filename)

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.generate(ctx, request)
	})
	if err != nil {
		c.logger.Error("PDF generation failed", err)
		return "", errors.UpstreamError("pdf", err)
	}

	return result.(string), nil
}

func (c *Client) generate(ctx context.Context, request *ResumeRequest) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pdf/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pdf request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pdf service returned status %d: %s", resp.StatusCode, respBody)
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if parsed.PDFURL == "" {
		return "", fmt.Errorf("pdf service returned no url (status %q)", parsed.Status)
	}

	return parsed.PDFURL, nil
}

// buildRequest flattens the optimized resume into the wire format: rewritten
// achievements become responsibility bullets, categorized skills map onto
// the service's four skill lists.
func buildRequest(resume *optimizer.OptimizedResume, filename string) *ResumeRequest {
	request := &ResumeRequest{
		FullName:          resume.Name,
		Email:             resume.Email,
		PhoneNumber:       resume.Phone,
		LinkedinURL:       resume.Linkedin,
		GithubURL:         resume.Github,
		EducationEntries:  []EducationEntry{},
		ExperienceEntries: []ExperienceEntry{},
		ProjectEntries:    []ProjectEntry{},
		Languages:         resume.Skills.Languages,
		Frameworks:        resume.Skills.Frameworks,
		DeveloperTools:    resume.Skills.Tools,
		Libraries:         resume.Skills.Libraries,
		OutputFilename:    filename,
	}

	for _, edu := range resume.Education {
		request.EducationEntries = append(request.EducationEntries, EducationEntry{
			Institution: edu.Institution,
			Degree:      strings.TrimSpace(edu.Degree + " " + edu.FieldOfStudy),
			DateRange:   dateRange(edu.StartYear, edu.EndYear),
		})
	}

	for _, exp := range resume.Experience {
		request.ExperienceEntries = append(request.ExperienceEntries, ExperienceEntry{
			Title:            exp.Title,
			Dates:            exp.Duration,
			Organization:     exp.Company,
			Responsibilities: exp.Achievements,
		})
	}

	for _, project := range resume.Projects {
		request.ProjectEntries = append(request.ProjectEntries, ProjectEntry{
			Name:         project.Name,
			Technologies: strings.Join(project.Technologies, ", "),
			Details:      append([]string{project.Description}, project.Achievements...),
		})
	}

	return request
}

func dateRange(start, end string) string {
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start + " - Present"
	case start == "":
		return end
	default:
		return start + " - " + end
	}
}

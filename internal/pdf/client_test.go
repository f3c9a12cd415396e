package pdf

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-optimizer/internal/optimizer"
)

func sampleResume() *optimizer.OptimizedResume {
	return &optimizer.OptimizedResume{
		Name:     "Alice Chen",
		Email:    "alice@example.com",
		Phone:    "+1 555 0100",
		Linkedin: "https://linkedin.com/in/alicechen",
		Summary:  "Backend engineer",
		Education: []optimizer.EducationEntry{
			{Institution: "State University", Degree: "BSc", FieldOfStudy: "Computer Science", StartYear: "2018", EndYear: "2022"},
		},
		Experience: []optimizer.ExperienceSection{
			{Title: "Software Engineer", Company: "Acme Corp", Duration: "2022 - Present",
				Achievements: []string{"Reduced API latency 40%"}},
		},
		Projects: []optimizer.ProjectSection{
			{Name: "Cache Layer", Description: "Distributed cache", Technologies: []string{"Go", "Redis"},
				Achievements: []string{"Cut origin load in half"}},
		},
		Skills: optimizer.CategorizedSkills{
			Languages:  []string{"Go"},
			Frameworks: []string{"React"},
			Tools:      []string{"Docker"},
			Libraries:  []string{"Redis"},
		},
	}
}

func TestClient_Render(t *testing.T) {
	ctx := context.Background()

	t.Run("sends the wire format and returns the url", func(t *testing.T) {
		var gotPath string
		var gotRequest ResumeRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
			w.Write([]byte(`{"status":"success","pdf_url":"https://cdn.example.com/resume_42.pdf"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL)
		url, err := client.Render(ctx, sampleResume(), "resume_42.pdf")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/resume_42.pdf", url)

		assert.Equal(t, "/pdf/generate", gotPath)
		assert.Equal(t, "Alice Chen", gotRequest.FullName)
		assert.Equal(t, "resume_42.pdf", gotRequest.OutputFilename)

		require.Len(t, gotRequest.EducationEntries, 1)
		assert.Equal(t, "BSc Computer Science", gotRequest.EducationEntries[0].Degree)
		assert.Equal(t, "2018 - 2022", gotRequest.EducationEntries[0].DateRange)

		require.Len(t, gotRequest.ExperienceEntries, 1)
		assert.Equal(t, "Acme Corp", gotRequest.ExperienceEntries[0].Organization)
		assert.Equal(t, []string{"Reduced API latency 40%"}, gotRequest.ExperienceEntries[0].Responsibilities)

		require.Len(t, gotRequest.ProjectEntries, 1)
		assert.Equal(t, "Go, Redis", gotRequest.ProjectEntries[0].Technologies)
		assert.Equal(t, []string{"Distributed cache", "Cut origin load in half"}, gotRequest.ProjectEntries[0].Details)

		assert.Equal(t, []string{"Go"}, gotRequest.Languages)
		assert.Equal(t, []string{"Docker"}, gotRequest.DeveloperTools)
	})

	t.Run("service error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail":"template rendering failed"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.Render(ctx, sampleResume(), "resume.pdf")
		assert.Error(t, err)
	})

	t.Run("missing url in response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"success"}`))
		}))
		defer server.Close()

		client := NewClient(server.URL)
		_, err := client.Render(ctx, sampleResume(), "resume.pdf")
		assert.Error(t, err)
	})
}

func TestDateRange(t *testing.T) {
	assert.Equal(t, "2018 - 2022", dateRange("2018", "2022"))
	assert.Equal(t, "2018 - Present", dateRange("2018", ""))
	assert.Equal(t, "2022", dateRange("", "2022"))
	assert.Equal(t, "", dateRange("", ""))
}

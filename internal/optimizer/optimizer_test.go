package optimizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAI returns canned responses in order and records the prompts it
// received.
type scriptedAI struct {
	responses []string
	prompts   []string
	err       error
}

func (s *scriptedAI) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.prompts = append(s.prompts, prompt)
	if len(s.responses) == 0 {
		return "", fmt.Errorf("no scripted response left")
	}
	response := s.responses[0]
	s.responses = s.responses[1:]
	return response, nil
}

func testProfile() *Profile {
	return &Profile{
		Name:  "Alice Chen",
		Email: "alice@example.com",
		Phone: "+1 555 0100",
		Education: []EducationEntry{
			{Institution: "State University", Degree: "BSc", FieldOfStudy: "Computer Science"},
		},
		Experience: []ExperienceEntry{
			{Company: "Acme Corp", Title: "Software Engineer", StartDate: "2022-01", IsCurrent: true},
		},
		Skills: []string{"Go", "Redis"},
	}
}

const analysisResponse = "```json\n" + `{
	"ats_score": 78,
	"matched_keywords": ["go", "redis"],
	"missing_keywords": ["kubernetes"],
	"recommendations": ["Add container orchestration experience"],
	"content_analysis": {
		"experience_alignment": 80,
		"skills_alignment": 70,
		"project_relevance": 60
	}
}` + "\n```"

const rewriteResponse = `{
	"summary": "Backend engineer focused on reliable services",
	"experience": [
		{"title": "Software Engineer", "company": "Acme Corp", "duration": "2022 - Present",
		 "achievements": ["Reduced API latency 40% by introducing Redis caching"]}
	],
	"projects": [],
	"skills": ["Go", "Redis", "Docker", "React"]
}`

func TestService_Optimize(t *testing.T) {
	ctx := context.Background()

	t.Run("runs the three stages in order", func(t *testing.T) {
		ai := &scriptedAI{responses: []string{"PARSED JD", analysisResponse, rewriteResponse}}
		service := NewService(ai, nil)

		result, err := service.Optimize(ctx, testProfile(), "We need a Go engineer")
		require.NoError(t, err)
		require.Len(t, ai.prompts, 3)

		// Stage 1 sees the raw job description
		assert.Contains(t, ai.prompts[0], "We need a Go engineer")

		// Stages 2 and 3 both receive the parsed output and the profile
		assert.Contains(t, ai.prompts[1], "PARSED JD")
		assert.Contains(t, ai.prompts[1], "Alice Chen")
		assert.Contains(t, ai.prompts[2], "PARSED JD")
		assert.Contains(t, ai.prompts[2], "Alice Chen")

		assert.Equal(t, "PARSED JD", result.ParsedJD)
	})

	t.Run("parses a fenced analysis response", func(t *testing.T) {
		ai := &scriptedAI{responses: []string{"parsed", analysisResponse, rewriteResponse}}
		service := NewService(ai, nil)

		result, err := service.Optimize(ctx, testProfile(), "jd")
		require.NoError(t, err)

		assert.Equal(t, float64(78), result.Analysis.ATSScore)
		assert.Equal(t, []string{"go", "redis"}, result.Analysis.MatchedKeywords)
		assert.Equal(t, []string{"kubernetes"}, result.Analysis.MissingKeywords)
		assert.Equal(t, float64(80), result.Analysis.ContentAnalysis.ExperienceAlignment)
	})

	t.Run("assembles the final resume from profile and rewrite", func(t *testing.T) {
		ai := &scriptedAI{responses: []string{"parsed", analysisResponse, rewriteResponse}}
		service := NewService(ai, nil)

		result, err := service.Optimize(ctx, testProfile(), "jd")
		require.NoError(t, err)

		resume := result.OptimizedResume
		assert.Equal(t, "Alice Chen", resume.Name)
		assert.Equal(t, "alice@example.com", resume.Email)
		require.Len(t, resume.Education, 1)
		assert.Equal(t, "State University", resume.Education[0].Institution)
		assert.Equal(t, "Backend engineer focused on reliable services", resume.Summary)
		require.Len(t, resume.Experience, 1)
		assert.Equal(t, "Acme Corp", resume.Experience[0].Company)

		// Skills come back categorized
		assert.Equal(t, []string{"Go"}, resume.Skills.Languages)
		assert.Equal(t, []string{"React"}, resume.Skills.Frameworks)
		assert.Equal(t, []string{"Docker"}, resume.Skills.Tools)
		assert.Equal(t, []string{"Redis"}, resume.Skills.Libraries)
	})

	t.Run("malformed analysis degrades to an empty analysis", func(t *testing.T) {
		ai := &scriptedAI{responses: []string{"parsed", "this is not json", rewriteResponse}}
		service := NewService(ai, nil)

		result, err := service.Optimize(ctx, testProfile(), "jd")
		require.NoError(t, err)
		assert.Equal(t, float64(0), result.Analysis.ATSScore)
		assert.NotNil(t, result.Analysis.MatchedKeywords)
		assert.Empty(t, result.Analysis.MatchedKeywords)
	})

	t.Run("ai failure aborts the run", func(t *testing.T) {
		ai := &scriptedAI{err: fmt.Errorf("quota exhausted")}
		service := NewService(ai, nil)

		_, err := service.Optimize(ctx, testProfile(), "jd")
		assert.Error(t, err)
	})
}

// memoryCache is a trivial Cache for tests.
type memoryCache struct {
	values map[string][]byte
	sets   int
}

func (c *memoryCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, ok := c.values[key]
	if !ok {
		return fmt.Errorf("cache miss")
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if c.values == nil {
		c.values = make(map[string][]byte)
	}
	c.values[key] = data
	c.sets++
	return nil
}

func TestService_Optimize_Cache(t *testing.T) {
	ctx := context.Background()
	cache := &memoryCache{}

	ai := &scriptedAI{responses: []string{"parsed", analysisResponse, rewriteResponse}}
	service := NewService(ai, cache)

	first, err := service.Optimize(ctx, testProfile(), "jd")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Len(t, ai.prompts, 3)

	// Second identical run is served from the cache
	second, err := service.Optimize(ctx, testProfile(), "jd")
	require.NoError(t, err)
	assert.Len(t, ai.prompts, 3)
	assert.Equal(t, first.Analysis.ATSScore, second.Analysis.ATSScore)

	// A different job description misses the cache
	ai.responses = []string{"parsed2", analysisResponse, rewriteResponse}
	_, err = service.Optimize(ctx, testProfile(), "another jd")
	require.NoError(t, err)
	assert.Len(t, ai.prompts, 6)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1}  "))
}

func TestCategorizeSkills(t *testing.T) {
	categorized := CategorizeSkills([]string{
		"Python", "TypeScript", "C++",
		"Django", "React",
		"Docker", "AWS",
		"NumPy", "",
		"  Go  ",
	})

	assert.Equal(t, []string{"Python", "TypeScript", "C++", "Go"}, categorized.Languages)
	assert.Equal(t, []string{"Django", "React"}, categorized.Frameworks)
	assert.Equal(t, []string{"Docker", "AWS"}, categorized.Tools)
	assert.Equal(t, []string{"NumPy"}, categorized.Libraries)
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, "languages", CategoryFor("rust"))
	assert.Equal(t, "frameworks", CategoryFor("FastAPI"))
	assert.Equal(t, "tools", CategoryFor("kubernetes"))
	assert.Equal(t, "libraries", CategoryFor("pandas"))
}

func TestNormalizeAnalysis(t *testing.T) {
	a := &Analysis{ATSScore: 150}
	normalizeAnalysis(a)
	assert.Equal(t, float64(100), a.ATSScore)
	assert.NotNil(t, a.MatchedKeywords)
	assert.NotNil(t, a.MissingKeywords)
	assert.NotNil(t, a.Recommendations)

	a = &Analysis{ATSScore: -5}
	normalizeAnalysis(a)
	assert.Equal(t, float64(0), a.ATSScore)
}

func TestResultCacheKey(t *testing.T) {
	a := resultCacheKey([]byte("profile"), "jd")
	b := resultCacheKey([]byte("profile"), "jd")
	c := resultCacheKey([]byte("profile"), "other jd")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "optimizer:result:"))
}

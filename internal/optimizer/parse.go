package optimizer

import (
	"encoding/json"
	"regexp"
	"strings"
)

var codeFencePattern = regexp.MustCompile("```json\n?|\n?```")

// stripCodeFence removes markdown code block syntax the model tends to wrap
// JSON responses in.
func stripCodeFence(response string) string {
	return strings.TrimSpace(codeFencePattern.ReplaceAllString(response, ""))
}

// decodeModelJSON unmarshals a model response into dest, tolerating a
// markdown code fence around the JSON payload.
func decodeModelJSON(response string, dest interface{}) error {
	return json.Unmarshal([]byte(stripCodeFence(response)), dest)
}

var (
	languagePattern  = regexp.MustCompile(`(?i)^(java|python|c\+\+|c#|javascript|typescript|ruby|php|swift|kotlin|go|rust|scala|r|sql|html|css)$`)
	frameworkPattern = regexp.MustCompile(`(?i)^(react|angular|vue|node|express|django|flask|spring|laravel|rails|asp\.net|fastapi|next\.js|nuxt\.js)$`)
	toolPattern      = regexp.MustCompile(`(?i)^(git|docker|kubernetes|aws|azure|gcp|jenkins|travis|github|gitlab|jira|confluence|vscode|intellij|eclipse|postman)$`)
)

// CategorizeSkills buckets flat skill names into languages, frameworks and
// tools by name; anything unrecognized lands in libraries.
func CategorizeSkills(skills []string) CategorizedSkills {
	categorized := CategorizedSkills{
		Languages:  []string{},
		Frameworks: []string{},
		Tools:      []string{},
		Libraries:  []string{},
	}

	for _, skill := range skills {
		trimmed := strings.TrimSpace(skill)
		if trimmed == "" {
			continue
		}

		switch {
		case languagePattern.MatchString(trimmed):
			categorized.Languages = append(categorized.Languages, trimmed)
		case frameworkPattern.MatchString(trimmed):
			categorized.Frameworks = append(categorized.Frameworks, trimmed)
		case toolPattern.MatchString(trimmed):
			categorized.Tools = append(categorized.Tools, trimmed)
		default:
			categorized.Libraries = append(categorized.Libraries, trimmed)
		}
	}

	return categorized
}

// CategoryFor returns the bucket a single skill name falls into. Used when
// importing missing keywords into the profile's skill list.
func CategoryFor(skill string) string {
	trimmed := strings.TrimSpace(skill)
	switch {
	case languagePattern.MatchString(trimmed):
		return "languages"
	case frameworkPattern.MatchString(trimmed):
		return "frameworks"
	case toolPattern.MatchString(trimmed):
		return "tools"
	default:
		return "libraries"
	}
}

package extract

import (
	"regexp"
	"strings"
)

// salaryPatterns are tried in order; the first pattern with a match wins and
// its first match is returned verbatim.
var salaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$[\d,]+(?:-\$[\d,]+)?[kK]?`),
	regexp.MustCompile(`(?i)[\d,]+(?:-\d+)?[kK]?\s*(?:per\s+year|annually|yearly)`),
	regexp.MustCompile(`(?i)salary[:\s]*\$?[\d,]+(?:-\$?[\d,]+)?`),
}

// ExtractSalary returns the first salary-looking substring of the page body
// text, or "" when none of the patterns match.
func ExtractSalary(bodyText string) string {
	for _, pattern := range salaryPatterns {
		if match := pattern.FindString(bodyText); match != "" {
			return match
		}
	}
	return ""
}

// remoteKeywords mark a posting as remote when any of them appears anywhere
// in the page body.
var remoteKeywords = []string{"remote", "work from home", "wfh", "distributed", "virtual"}

// DetectRemote reports whether the page body mentions remote work.
func DetectRemote(bodyText string) bool {
	lower := strings.ToLower(bodyText)
	for _, keyword := range remoteKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

const maxRequirements = 10

// requirementPatterns are applied in order over the description; matches are
// concatenated in pattern order.
var requirementPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:required|must have|need|requirement)[:\s]*[^.]+`),
	regexp.MustCompile(`(?i)(?:experience|years?)[:\s]*\d+[+\-]?\s*(?:years?|yrs?)`),
	regexp.MustCompile(`(?i)(?:degree|education)[:\s]*[^.]+`),
}

// ExtractRequirements pulls requirement snippets from the description,
// capped at the first ten.
func ExtractRequirements(description string) []string {
	requirements := []string{}
	if description == "" {
		return requirements
	}

	for _, pattern := range requirementPatterns {
		requirements = append(requirements, pattern.FindAllString(description, -1)...)
	}

	if len(requirements) > maxRequirements {
		requirements = requirements[:maxRequirements]
	}
	return requirements
}

// skillVocabulary is the fixed canonical skill list. Result order follows
// this list, not the order of appearance in the description.
var skillVocabulary = []string{
	"JavaScript", "Python", "Java", "React", "Node.js", "TypeScript",
	"AWS", "Docker", "Kubernetes", "SQL", "MongoDB", "PostgreSQL",
	"Git", "Agile", "Scrum", "Machine Learning", "AI", "Data Science",
	"Frontend", "Backend", "Full Stack", "DevOps", "Cloud Computing",
}

// skillPatterns holds one word-boundary regexp per vocabulary entry, so
// "Node.js engineer" matches Node.js but "NodeJSDeveloper" does not.
var skillPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(skillVocabulary))
	for i, skill := range skillVocabulary {
		patterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(skill) + `\b`)
	}
	return patterns
}()

// ExtractSkills returns the vocabulary entries found in the description, in
// vocabulary order.
func ExtractSkills(description string) []string {
	skills := []string{}
	if description == "" {
		return skills
	}
	for i, pattern := range skillPatterns {
		if pattern.MatchString(description) {
			skills = append(skills, skillVocabulary[i])
		}
	}
	return skills
}

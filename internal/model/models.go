// Package model defines shared data structures for the collector service.
package model

// Job board source names. Provenance of a JobRecord is always one of these.
const (
	SourceLinkedIn       = "LinkedIn"
	SourceIndeed         = "Indeed"
	SourceGlassdoor      = "Glassdoor"
	SourceAngelList      = "AngelList"
	SourceStackOverflow  = "Stack Overflow"
	SourceRemoteCo       = "Remote.co"
	SourceWeWorkRemotely = "We Work Remotely"
)

// LocationNotSpecified is the sentinel stored when a posting carries no
// usable location.
const LocationNotSpecified = "Not specified"

// SelectorResult records how a single field was located in the page.
type SelectorResult struct {
	Selector           string   `json:"selector,omitempty"`
	Index              int      `json:"index"`
	Success            bool     `json:"success"`
	Method             string   `json:"method,omitempty"`
	AttemptedSelectors []string `json:"attemptedSelectors,omitempty"`
}

// ExtractionMetadata is the per-record provenance block. FallbackUsed is a
// single flag shared by every field of one record: it is OR'd across all
// extraction calls, never tracked per field.
type ExtractionMetadata struct {
	ExtractedAt  string                    `json:"extractedAt"`
	PageVariant  string                    `json:"pageVariant,omitempty"`
	Selectors    map[string]SelectorResult `json:"selectors"`
	FallbackUsed bool                      `json:"fallbackUsed"`
	Confidence   int                       `json:"confidence"`
}

// JobRecord is one detected posting, normalised across job boards.
// Title and Company are mandatory; a record missing either is discarded
// before it ever reaches a caller.
type JobRecord struct {
	ID                 string              `json:"id,omitempty"`
	Title              string              `json:"title"`
	Company            string              `json:"company"`
	Location           string              `json:"location"`
	Description        string              `json:"description"`
	DescriptionHTML    string              `json:"descriptionHtml,omitempty"`
	RawDescriptionHTML string              `json:"rawDescriptionHtml,omitempty"`
	URL                string              `json:"url"`
	Source             string              `json:"source"`
	PostedDate         string              `json:"postedDate,omitempty"`
	Salary             string              `json:"salary,omitempty"`
	Remote             bool                `json:"remote"`
	Requirements       []string            `json:"requirements"`
	Skills             []string            `json:"skills"`
	Metadata           *ExtractionMetadata `json:"extractionMetadata,omitempty"`

	// Bookmark lifecycle fields, set when the record is stored.
	BookmarkedAt string       `json:"bookmarkedAt,omitempty"`
	LastAnalyzed string       `json:"lastAnalyzed,omitempty"`
	Analysis     *JobAnalysis `json:"analysis,omitempty"`
}

// AuthUser identifies the signed-in CareerOS user.
type AuthUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// SessionInfo describes the server-side session backing an AuthSession.
type SessionInfo struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	CreatedAt int64  `json:"createdAt"`
}

// AuthSession is the persisted authentication state. Timestamp is Unix
// milliseconds at capture time; the session expires 24h later. Strategy
// names which resolver strategy produced it.
type AuthSession struct {
	User             *AuthUser    `json:"user"`
	Token            string       `json:"token"`
	Session          *SessionInfo `json:"session,omitempty"`
	Timestamp        int64        `json:"timestamp"`
	Strategy         string       `json:"strategy,omitempty"`
	ExtensionID      string       `json:"extensionId"`
	ExtensionVersion string       `json:"extensionVersion"`
}

// AuthError is the single diagnostic record persisted on auth failure.
// It is overwritten on each failure, never appended.
type AuthError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
	RetryCount int    `json:"retryCount"`
	Strategy   string `json:"strategy,omitempty"`
}

// Settings is the flat user configuration object.
type Settings struct {
	AutoAnalyze      bool   `json:"autoAnalyze"`
	Notifications    bool   `json:"notifications"`
	SyncWithCareerOS bool   `json:"syncWithCareerOS"`
	CareerOSURL      string `json:"careerOSUrl"`
}

// DefaultSettings returns the configuration seeded on first run.
func DefaultSettings() Settings {
	return Settings{
		AutoAnalyze:      true,
		Notifications:    true,
		SyncWithCareerOS: true,
		CareerOSURL:      "http://localhost:3000",
	}
}

// ─── Analysis payload ────────────────────────────────────────────────────────
//
// The analysis algorithms themselves live in CareerOS; the collector only
// carries their result shape and a stub producer (internal/analysis).

// SkillsMatch compares a posting's skills against the user profile.
type SkillsMatch struct {
	MatchedSkills   []string `json:"matchedSkills"`
	MissingSkills   []string `json:"missingSkills"`
	MatchPercentage int      `json:"matchPercentage"`
	PrioritySkills  []string `json:"prioritySkills"`
}

// ExperienceGap quantifies missing years of experience.
type ExperienceGap struct {
	Years int    `json:"years"`
	Type  string `json:"type"`
}

// RequirementsGap lists unmet posting requirements.
type RequirementsGap struct {
	MissingRequirements []string       `json:"missingRequirements"`
	ExperienceGap       *ExperienceGap `json:"experienceGap,omitempty"`
	EducationGap        *string        `json:"educationGap,omitempty"`
	CertificationGap    []string       `json:"certificationGap"`
}

// SalaryBenchmark compares the posting against market data.
type SalaryBenchmark struct {
	MarketRate         int               `json:"marketRate"`
	UserCurrentSalary  int               `json:"userCurrentSalary,omitempty"`
	SalaryGap          int               `json:"salaryGap"`
	NegotiationRoom    int               `json:"negotiationRoom"`
	BenefitsComparison map[string]string `json:"benefitsComparison,omitempty"`
}

// ApplicationReadiness scores how prepared the user is to apply.
type ApplicationReadiness struct {
	Score           int      `json:"score"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
}

// JobAnalysis is the full analysis result attached to a bookmarked job.
type JobAnalysis struct {
	SkillsMatch          SkillsMatch          `json:"skillsMatch"`
	RequirementsGap      RequirementsGap      `json:"requirementsGap"`
	SalaryBenchmark      SalaryBenchmark      `json:"salaryBenchmark"`
	ApplicationReadiness ApplicationReadiness `json:"applicationReadiness"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionStatus is the lifecycle state of a resume submission.
// Transitions are one-directional; see internal/lifecycle.
type SubmissionStatus string

const (
	StatusPending    SubmissionStatus = "pending"
	StatusProcessing SubmissionStatus = "processing"
	StatusAnalyzing  SubmissionStatus = "analyzing"
	StatusCompleted  SubmissionStatus = "completed"
	StatusFailed     SubmissionStatus = "failed"
	StatusTimeout    SubmissionStatus = "timeout"
	StatusDeleted    SubmissionStatus = "deleted"
)

// Terminal reports whether no further pipeline work may touch the submission.
func (s SubmissionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimeout, StatusDeleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is legal. The
// pipeline only moves forward; the single transition out of a terminal
// state is into deleted.
func (s SubmissionStatus) CanTransitionTo(next SubmissionStatus) bool {
	if s == next {
		return false
	}
	switch next {
	case StatusProcessing:
		return s == StatusPending
	case StatusAnalyzing:
		return s == StatusProcessing
	case StatusCompleted:
		return s == StatusAnalyzing
	case StatusFailed, StatusTimeout:
		return !s.Terminal()
	case StatusDeleted:
		return s != StatusDeleted
	}
	return false
}

// SeniorityLevel orders canonical titles from entry to executive.
type SeniorityLevel string

const (
	SeniorityEntry     SeniorityLevel = "entry"
	SeniorityMid       SeniorityLevel = "mid"
	SenioritySenior    SeniorityLevel = "senior"
	SeniorityLead      SeniorityLevel = "lead"
	SeniorityExecutive SeniorityLevel = "executive"
)

// Rank maps a seniority level onto an integer scale so level gaps can be
// measured. Unknown levels rank as mid.
func (l SeniorityLevel) Rank() int {
	switch l {
	case SeniorityEntry:
		return 1
	case SeniorityMid:
		return 2
	case SenioritySenior:
		return 3
	case SeniorityLead:
		return 4
	case SeniorityExecutive:
		return 5
	}
	return 2
}

// CanonicalTitle is immutable reference data: the single normalized form of
// a job title. NormalizedTitle is the natural key: it is written at import
// from the same normalization the resolver applies to raw input, so lookups
// and imports agree on identity regardless of punctuation or casing.
type CanonicalTitle struct {
	ID              uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title           string         `gorm:"type:text;not null" json:"title"`
	NormalizedTitle string         `gorm:"type:text;uniqueIndex;not null" json:"-"`
	Category        string         `gorm:"type:text;not null" json:"category"`
	SeniorityLevel  SeniorityLevel `gorm:"type:text;not null" json:"seniority_level"`
	Industry        *string        `gorm:"type:text" json:"industry,omitempty"`
	IsGeneric       bool           `gorm:"not null;default:false" json:"is_generic"`
}

func (CanonicalTitle) TableName() string {
	return "canonical_titles"
}

// TitleVariation maps a known alternative spelling onto a canonical title.
// ConfidenceScore is a static prior for that exact string, independent of
// runtime similarity.
type TitleVariation struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CanonicalID     uuid.UUID `gorm:"type:uuid;not null;index" json:"canonical_id"`
	VariationText   string    `gorm:"type:text;not null" json:"variation_text"`
	NormalizedText  string    `gorm:"type:text;uniqueIndex;not null" json:"-"`
	ConfidenceScore int       `gorm:"not null" json:"confidence_score"` // 0-100

	Canonical CanonicalTitle `gorm:"foreignKey:CanonicalID" json:"-"`
}

func (TitleVariation) TableName() string {
	return "title_variations"
}

// RoleTemplate holds the per-role requirement profile used by the
// deterministic rules. One per canonical title.
type RoleTemplate struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CanonicalID      uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"canonical_id"`
	RequiredSkills   StringList     `gorm:"type:jsonb" json:"required_skills"`
	PreferredSkills  StringList     `gorm:"type:jsonb" json:"preferred_skills"`
	RequiredKeywords StringList     `gorm:"type:jsonb" json:"required_keywords"`
	ATSKeywords      StringList     `gorm:"type:jsonb" json:"ats_keywords"`
	ExperienceMin    int            `gorm:"not null" json:"experience_min"`
	ExperienceMax    *int           `json:"experience_max,omitempty"`
	Canonical        CanonicalTitle `gorm:"foreignKey:CanonicalID" json:"-"`
}

func (RoleTemplate) TableName() string {
	return "role_templates"
}

// Submission is one resume analysis request. EncryptedContent is the sealed
// resume document; plaintext never touches storage. ExpiresAt is fixed at
// creation (CreatedAt + retention window) and never moves.
type Submission struct {
	ID                uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SessionID         string           `gorm:"type:text;not null;index" json:"session_id"`
	FileHash          string           `gorm:"type:text;not null" json:"file_hash"`
	FileType          string           `gorm:"type:text;not null" json:"file_type"`
	EncryptedContent  []byte           `gorm:"type:bytea" json:"-"`
	TargetTitleRaw    string           `gorm:"type:text;not null" json:"target_title_raw"`
	CanonicalTitleID  *uuid.UUID       `gorm:"type:uuid" json:"canonical_title_id,omitempty"`
	JobDescription    *string          `gorm:"type:text" json:"-"`
	Status            SubmissionStatus `gorm:"type:text;not null;default:'pending';index" json:"status"`
	ConfidenceScore   *int             `json:"confidence_score,omitempty"`
	ErrorMessage      *string          `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt         time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	ExpiresAt         time.Time        `gorm:"not null;index" json:"expires_at"`
	DeletedAt         *time.Time       `json:"deleted_at,omitempty"`

	CanonicalTitle *CanonicalTitle `gorm:"foreignKey:CanonicalTitleID" json:"-"`
}

func (Submission) TableName() string {
	return "submissions"
}

// DiagnosisResult exists iff its submission is completed. Created exactly
// once per submission.
type DiagnosisResult struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SubmissionID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"submission_id"`
	OverallConfidence int       `gorm:"not null" json:"overall_confidence"` // 0-100
	DataCompleteness  int       `gorm:"not null" json:"data_completeness"`  // 0-100
	IsCompetitive     bool      `gorm:"not null" json:"is_competitive"`
	ModelUsed         string    `gorm:"type:text;not null" json:"model_used"`
	AnalysisMillis    int64     `gorm:"not null" json:"analysis_millis"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	RootCauses      []RootCause      `gorm:"foreignKey:DiagnosisID" json:"root_causes"`
	Recommendations []Recommendation `gorm:"foreignKey:DiagnosisID" json:"recommendations"`
}

func (DiagnosisResult) TableName() string {
	return "diagnosis_results"
}

// RootCauseCategory tags the dimension a root cause belongs to.
type RootCauseCategory string

const (
	CategoryKeywordMismatch    RootCauseCategory = "keyword_mismatch"
	CategoryExperienceMismatch RootCauseCategory = "experience_mismatch"
	CategoryATSFormat          RootCauseCategory = "ats_format"
	CategoryMissingSection     RootCauseCategory = "missing_section"
	CategoryWeakAchievements   RootCauseCategory = "weak_achievements"
	CategorySkillGap           RootCauseCategory = "skill_gap"
	CategoryGenericTargeting   RootCauseCategory = "generic_targeting"
)

// RootCause is one surfaced rejection cause. At most five per diagnosis;
// Priority is a dense rank 1..N.
type RootCause struct {
	ID          uuid.UUID         `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	DiagnosisID uuid.UUID         `gorm:"type:uuid;not null;index" json:"diagnosis_id"`
	Title       string            `gorm:"type:text;not null" json:"title"`
	Description string            `gorm:"type:text;not null" json:"description"`
	Category    RootCauseCategory `gorm:"type:text;not null" json:"category"`
	Severity    int               `gorm:"not null" json:"severity"` // 1-10
	Impact      int               `gorm:"not null" json:"impact"`   // 1-10
	Priority    int               `gorm:"not null" json:"priority"` // 1-5 dense

	Evidence []Evidence `gorm:"foreignKey:RootCauseID" json:"evidence"`
}

func (RootCause) TableName() string {
	return "root_causes"
}

// EvidenceType distinguishes how a citation is checked.
type EvidenceType string

const (
	// EvidencePresent cites a contiguous excerpt of a source document.
	EvidencePresent EvidenceType = "present"
	// EvidenceAbsent asserts a structural absence, e.g. a missing section.
	EvidenceAbsent EvidenceType = "absent"
)

// Evidence grounds a root cause in the source documents. Citation is either
// a verbatim excerpt or an explicit absence marker.
type Evidence struct {
	ID          uuid.UUID    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	RootCauseID uuid.UUID    `gorm:"type:uuid;not null;index" json:"root_cause_id"`
	Type        EvidenceType `gorm:"type:text;not null" json:"type"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Citation    string       `gorm:"type:text;not null" json:"citation"`
	Location    *string      `gorm:"type:text" json:"location,omitempty"`
	Confidence  int          `gorm:"not null" json:"confidence"` // 0-100
}

func (Evidence) TableName() string {
	return "evidence"
}

// Difficulty buckets the effort a recommendation takes.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Recommendation is a remediation step. At most three per diagnosis,
// dense-ranked 1..N by expected impact.
type Recommendation struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	DiagnosisID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"diagnosis_id"`
	RelatedRootCause *uuid.UUID `gorm:"type:uuid" json:"related_root_cause,omitempty"`
	Title            string     `gorm:"type:text;not null" json:"title"`
	Description      string     `gorm:"type:text;not null" json:"description"`
	Steps            StringList `gorm:"type:jsonb" json:"steps"`
	ExpectedImpact   int        `gorm:"not null" json:"expected_impact"` // 1-10
	Difficulty       Difficulty `gorm:"type:text;not null" json:"difficulty"`
	TimeEstimate     string     `gorm:"type:text;not null" json:"time_estimate"`
	Priority         int        `gorm:"not null" json:"priority"` // 1-3 dense
}

func (Recommendation) TableName() string {
	return "recommendations"
}

// DeletionConfirmation records that a submission's content was irreversibly
// purged. One per deleted submission.
type DeletionConfirmation struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	SubmissionID      uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"submission_id"`
	ConfirmationToken string    `gorm:"type:text;not null" json:"confirmation_token"`
	DeletedAt         time.Time `gorm:"not null" json:"deleted_at"`
}

func (DeletionConfirmation) TableName() string {
	return "deletion_confirmations"
}

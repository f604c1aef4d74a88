package models

import (
	"time"

	"github.com/google/uuid"
)

// UrgencyLevel classifies how quickly a prospect needs a solution.
type UrgencyLevel string

const (
	UrgencyHigh   UrgencyLevel = "high"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyLow    UrgencyLevel = "low"
)

// ValidUrgencyLevels contains all valid urgency level values.
var ValidUrgencyLevels = []UrgencyLevel{
	UrgencyHigh,
	UrgencyMedium,
	UrgencyLow,
}

// IsValidUrgencyLevel checks if the given level is valid.
func IsValidUrgencyLevel(l UrgencyLevel) bool {
	for _, v := range ValidUrgencyLevels {
		if v == l {
			return true
		}
	}
	return false
}

// ExtractionMethod records how a lead was produced.
type ExtractionMethod string

const (
	// ExtractionMethodAI means the lead came from a generative AI response.
	ExtractionMethodAI ExtractionMethod = "ai"
	// ExtractionMethodPatternFallback means the lead came from regex-based
	// entity extraction, used when the AI path is unavailable.
	ExtractionMethodPatternFallback ExtractionMethod = "pattern-fallback"
)

// Contact holds the primary contact details extracted from a conversation.
type Contact struct {
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`
}

// IsEmpty reports whether no contact field is populated.
func (c Contact) IsEmpty() bool {
	return c.Name == "" && c.Email == "" && c.Phone == "" && c.Title == "" && c.Department == ""
}

// LeadFieldCount is the number of top-level lead fields that data
// completeness is measured against.
const LeadFieldCount = 12

// Lead is a structured prospect record extracted from a sales conversation.
type Lead struct {
	ID uuid.UUID `json:"id"`

	CompanyName          string       `json:"company_name"`
	Contact              Contact      `json:"contact"`
	PainPoints           []string     `json:"pain_points"`
	Requirements         []string     `json:"requirements"`
	BudgetInfo           string       `json:"budget_info"`
	Timeline             string       `json:"timeline"`
	DecisionMakers       []string     `json:"decision_makers"`
	Industry             string       `json:"industry"`
	CompanySize          string       `json:"company_size"`
	UrgencyLevel         UrgencyLevel `json:"urgency_level"`
	CurrentSolution      string       `json:"current_solution"`
	CompetitorsMentioned []string     `json:"competitors_mentioned"`

	// Extraction metadata
	ConfidenceScore  int              `json:"confidence_score"`  // 0-100
	DataCompleteness int              `json:"data_completeness"` // 0-100
	ExtractionMethod ExtractionMethod `json:"extraction_method"`

	// Where the conversation came from (web form, call transcript, ...).
	Source string `json:"source,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// PopulatedFieldCount returns how many of the 12 top-level fields hold data.
func (l *Lead) PopulatedFieldCount() int {
	count := 0
	if l.CompanyName != "" {
		count++
	}
	if !l.Contact.IsEmpty() {
		count++
	}
	if len(l.PainPoints) > 0 {
		count++
	}
	if len(l.Requirements) > 0 {
		count++
	}
	if l.BudgetInfo != "" {
		count++
	}
	if l.Timeline != "" {
		count++
	}
	if len(l.DecisionMakers) > 0 {
		count++
	}
	if l.Industry != "" {
		count++
	}
	if l.CompanySize != "" {
		count++
	}
	if l.UrgencyLevel != "" {
		count++
	}
	if l.CurrentSolution != "" {
		count++
	}
	if len(l.CompetitorsMentioned) > 0 {
		count++
	}
	return count
}

package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/leadforge/leadforge-engine/pkg/llm"
	"github.com/leadforge/leadforge-engine/pkg/models"
)

// ScoringConfig holds the confidence scoring weights. The weights sum to
// 100; confidence is an internal heuristic, not a statistical probability.
type ScoringConfig struct {
	CoverageWeight        int
	ContactWeight         int
	CoreSignalWeight      int
	FallbackConfidenceCap int
}

// DefaultScoringConfig returns the standard weights.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		CoverageWeight:        60,
		ContactWeight:         20,
		CoreSignalWeight:      20,
		FallbackConfidenceCap: 60,
	}
}

// Parser converts raw AI responses into validated leads. ParseLead never
// returns an error: responses that cannot be parsed as JSON degrade to
// pattern extraction over the raw text.
type Parser struct {
	scoring ScoringConfig
}

// NewParser creates a parser with the given scoring weights.
func NewParser(scoring ScoringConfig) *Parser {
	return &Parser{scoring: scoring}
}

// flexString tolerates models that emit numbers or booleans where the schema
// asks for a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexString(strconv.FormatFloat(n, 'f', -1, 64))
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexString(strconv.FormatBool(b))
		return nil
	}

	// Unrecognized shape (object, array): drop rather than fail the parse.
	*f = ""
	return nil
}

// flexStrings tolerates a bare string, an array of mixed scalars, or null
// where the schema asks for a string array.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var list []flexString
	if err := json.Unmarshal(data, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, v := range list {
			if v != "" {
				out = append(out, string(v))
			}
		}
		*f = out
		return nil
	}

	var single flexString
	if err := json.Unmarshal(data, &single); err == nil && single != "" {
		*f = []string{string(single)}
		return nil
	}

	*f = nil
	return nil
}

// leadPayload mirrors the JSON schema the extraction prompt requests.
type leadPayload struct {
	CompanyName string `json:"company_name"`
	Contact     struct {
		Name       flexString `json:"name"`
		Email      flexString `json:"email"`
		Phone      flexString `json:"phone"`
		Title      flexString `json:"title"`
		Department flexString `json:"department"`
	} `json:"contact"`
	PainPoints           flexStrings `json:"pain_points"`
	Requirements         flexStrings `json:"requirements"`
	BudgetInfo           flexString  `json:"budget_info"`
	Timeline             flexString  `json:"timeline"`
	DecisionMakers       flexStrings `json:"decision_makers"`
	Industry             flexString  `json:"industry"`
	CompanySize          flexString  `json:"company_size"`
	UrgencyLevel         flexString  `json:"urgency_level"`
	CurrentSolution      flexString  `json:"current_solution"`
	CompetitorsMentioned flexStrings `json:"competitors_mentioned"`
}

// Placeholder values models emit instead of leaving a field empty.
var placeholderValues = map[string]bool{
	"n/a":           true,
	"na":            true,
	"none":          true,
	"null":          true,
	"unknown":       true,
	"not provided":  true,
	"not mentioned": true,
	"not specified": true,
	"unspecified":   true,
	"tbd":           true,
	"-":             true,
}

// cleanField trims a value and drops placeholder noise.
func cleanField(value string) string {
	trimmed := strings.TrimSpace(value)
	if placeholderValues[strings.ToLower(trimmed)] {
		return ""
	}
	return trimmed
}

func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		if cleaned := cleanField(v); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return dedupe(out)
}

func validEmail(email string) bool {
	return emailPattern.MatchString(email) && emailPattern.FindString(email) == email
}

// ParseLead converts a raw model response into a validated lead. When the
// response contains no parseable JSON it falls back to pattern extraction
// over the raw text, so the caller always gets a lead.
func (p *Parser) ParseLead(raw string) *models.Lead {
	jsonStr, err := llm.ExtractJSON(raw)
	if err != nil {
		return ExtractLeadFallback(raw, p.scoring)
	}

	var payload leadPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return ExtractLeadFallback(raw, p.scoring)
	}

	lead := &models.Lead{
		CompanyName: cleanField(payload.CompanyName),
		Contact: models.Contact{
			Name:       cleanField(string(payload.Contact.Name)),
			Title:      cleanField(string(payload.Contact.Title)),
			Department: cleanField(string(payload.Contact.Department)),
		},
		PainPoints:           cleanList(payload.PainPoints),
		Requirements:         cleanList(payload.Requirements),
		BudgetInfo:           cleanField(string(payload.BudgetInfo)),
		Timeline:             cleanField(string(payload.Timeline)),
		DecisionMakers:       cleanList(payload.DecisionMakers),
		Industry:             cleanField(string(payload.Industry)),
		CompanySize:          cleanField(string(payload.CompanySize)),
		CurrentSolution:      cleanField(string(payload.CurrentSolution)),
		CompetitorsMentioned: cleanList(payload.CompetitorsMentioned),
		ExtractionMethod:     models.ExtractionMethodAI,
	}

	// Contact details that fail format validation are dropped, not kept as
	// noise: a malformed email is worse than no email.
	if email := cleanField(string(payload.Contact.Email)); validEmail(email) {
		lead.Contact.Email = email
	}
	if phone := cleanField(string(payload.Contact.Phone)); validPhone(phone) {
		lead.Contact.Phone = phone
	}

	if level := normalizeUrgency(string(payload.UrgencyLevel)); level != "" {
		lead.UrgencyLevel = level
	}

	lead.DataCompleteness = completeness(lead)
	lead.ConfidenceScore = confidenceScore(lead, p.scoring)

	return lead
}

// normalizeUrgency maps free-form urgency text onto the three levels.
func normalizeUrgency(value string) models.UrgencyLevel {
	lower := strings.ToLower(strings.TrimSpace(value))
	switch {
	case lower == "":
		return ""
	case strings.Contains(lower, "high") || strings.Contains(lower, "urgent") || strings.Contains(lower, "critical"):
		return models.UrgencyHigh
	case strings.Contains(lower, "medium") || strings.Contains(lower, "moderate"):
		return models.UrgencyMedium
	case strings.Contains(lower, "low"):
		return models.UrgencyLow
	default:
		return ""
	}
}

// completeness is the percentage of the lead's top-level fields that hold
// data.
func completeness(lead *models.Lead) int {
	return lead.PopulatedFieldCount() * 100 / models.LeadFieldCount
}

// confidenceScore combines field coverage with two trust signals: a
// verifiable contact channel, and the presence of both a company and a
// concrete need.
func confidenceScore(lead *models.Lead, scoring ScoringConfig) int {
	score := lead.PopulatedFieldCount() * scoring.CoverageWeight / models.LeadFieldCount

	if validEmail(lead.Contact.Email) || validPhone(lead.Contact.Phone) {
		score += scoring.ContactWeight
	}

	if lead.CompanyName != "" && (len(lead.Requirements) > 0 || len(lead.PainPoints) > 0) {
		score += scoring.CoreSignalWeight
	}

	if score > 100 {
		score = 100
	}
	return score
}

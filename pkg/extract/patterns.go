// Package extract turns raw AI responses and conversation text into
// validated lead records. The parser handles the AI path; the pattern
// extractor is the regex-based fallback used when no AI response is
// available.
package extract

import (
	"regexp"
	"strings"

	"github.com/leadforge/leadforge-engine/pkg/models"
)

// Entities holds everything the pattern extractor recognized in a text.
type Entities struct {
	Emails       []string
	Phones       []string
	Companies    []string
	People       []string
	Amounts      []string
	Dates        []string
	Technologies []string
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// Phone candidates are loose on purpose; validPhone filters by digit count.
	phonePattern = regexp.MustCompile(`\+?\(?\d[\d()\-.\s]*\d`)

	// Capitalized word runs ending in a corporate suffix.
	companyPattern = regexp.MustCompile(`(?:[A-Z][A-Za-z&]+\s+)+(?:Corp|Corporation|Inc|LLC|Ltd|Limited|Company|Co|Group|Solutions|Technologies|Systems)\b\.?`)

	// Honorific followed by a capitalized name, or two adjacent capitalized
	// words following a role cue.
	personPattern  = regexp.MustCompile(`(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?`)
	roleCuePattern = regexp.MustCompile(`(?:CEO|CTO|CFO|COO|CIO|VP|Director|Manager|Head of \w+|President|Founder)(?:\s+[A-Z][a-z]+\s+[A-Z][a-z]+)?`)

	moneyPattern = regexp.MustCompile(`\$\s?\d{1,3}(?:,\d{3})*(?:\.\d+)?(?:\s?(?:[kKmM]\b|million|billion|thousand))?|\b\d{1,3}(?:,\d{3})*(?:\.\d+)?\s?(?:dollars|USD|million|billion|k\b)`)

	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
		regexp.MustCompile(`\bQ[1-4]\s?\d{4}\b`),
		regexp.MustCompile(`\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}\b`),
		regexp.MustCompile(`\b(?:next|this|within)\s+(?:\d+\s+)?(?:week|month|quarter|year)s?\b`),
		regexp.MustCompile(`\bend of (?:the )?(?:week|month|quarter|year)\b`),
	}

	// Vocabulary of technology signals matched as whole words.
	technologyVocabulary = []string{
		"CRM", "ERP", "API", "SaaS", "cloud", "on-premise", "database",
		"analytics", "dashboard", "automation", "integration", "AI",
		"machine learning", "Salesforce", "HubSpot", "SAP", "Oracle",
		"AWS", "Azure", "Kubernetes", "mobile app", "e-commerce",
	}
)

var technologyPatterns = buildTechnologyPatterns()

func buildTechnologyPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(technologyVocabulary))
	for _, term := range technologyVocabulary {
		patterns[term] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	}
	return patterns
}

// validPhone keeps candidates whose digit count looks like a real phone
// number and rejects things like bare years or money figures.
func validPhone(candidate string) bool {
	digits := 0
	for _, r := range candidate {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 7 || digits > 15 {
		return false
	}
	// A candidate with no separators and few digits is likely an ID or year.
	if digits < 10 && !strings.ContainsAny(candidate, "-.() ") {
		return false
	}
	return true
}

// dedupe removes duplicates case-insensitively while preserving first-seen
// order and casing.
func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// ExtractEntities runs every pattern over the text. It is a pure function:
// the same text always yields the same entities.
func ExtractEntities(text string) Entities {
	var e Entities

	e.Emails = dedupe(emailPattern.FindAllString(text, -1))

	var phones []string
	for _, candidate := range phonePattern.FindAllString(text, -1) {
		candidate = strings.TrimSpace(candidate)
		if validPhone(candidate) {
			phones = append(phones, candidate)
		}
	}
	e.Phones = dedupe(phones)

	var companies []string
	for _, c := range companyPattern.FindAllString(text, -1) {
		companies = append(companies, strings.TrimSuffix(strings.TrimSpace(c), "."))
	}
	e.Companies = dedupe(companies)

	people := personPattern.FindAllString(text, -1)
	for _, m := range roleCuePattern.FindAllString(text, -1) {
		// Keep only cues that actually captured a trailing name.
		parts := strings.Fields(m)
		if len(parts) >= 3 {
			people = append(people, m)
		}
	}
	e.People = dedupe(people)

	e.Amounts = dedupe(moneyPattern.FindAllString(text, -1))

	var dates []string
	for _, p := range datePatterns {
		dates = append(dates, p.FindAllString(text, -1)...)
	}
	e.Dates = dedupe(dates)

	var tech []string
	for _, term := range technologyVocabulary {
		if technologyPatterns[term].MatchString(text) {
			tech = append(tech, term)
		}
	}
	e.Technologies = tech

	return e
}

// urgencyKeywords maps trigger words in the conversation to an urgency level.
var urgencyKeywords = []struct {
	level models.UrgencyLevel
	words []string
}{
	{models.UrgencyHigh, []string{"urgent", "asap", "immediately", "critical", "right away", "this week"}},
	{models.UrgencyMedium, []string{"soon", "this quarter", "next month", "in the coming"}},
	{models.UrgencyLow, []string{"eventually", "exploring", "no rush", "next year", "someday"}},
}

// detectUrgency scans for urgency cues, preferring the highest level found.
func detectUrgency(text string) models.UrgencyLevel {
	lower := strings.ToLower(text)
	for _, group := range urgencyKeywords {
		for _, w := range group.words {
			if strings.Contains(lower, w) {
				return group.level
			}
		}
	}
	return ""
}

// ExtractLeadFallback builds a lead from pattern-matched entities alone.
// Confidence is capped at confidenceCap to signal reduced trust relative to
// AI extraction. The result is always non-nil, even for text with no
// recognizable entities.
func ExtractLeadFallback(text string, scoring ScoringConfig) *models.Lead {
	entities := ExtractEntities(text)

	lead := &models.Lead{
		ExtractionMethod: models.ExtractionMethodPatternFallback,
	}

	if len(entities.Companies) > 0 {
		lead.CompanyName = entities.Companies[0]
	}
	if len(entities.Emails) > 0 {
		lead.Contact.Email = entities.Emails[0]
	}
	if len(entities.Phones) > 0 {
		lead.Contact.Phone = entities.Phones[0]
	}
	if len(entities.People) > 0 {
		lead.Contact.Name = stripHonorific(entities.People[0])
		lead.DecisionMakers = entities.People
	}
	if len(entities.Amounts) > 0 {
		lead.BudgetInfo = strings.Join(entities.Amounts, ", ")
	}
	if len(entities.Dates) > 0 {
		lead.Timeline = strings.Join(entities.Dates, ", ")
	}
	if len(entities.Technologies) > 0 {
		lead.Requirements = entities.Technologies
	}
	lead.UrgencyLevel = detectUrgency(text)

	lead.DataCompleteness = completeness(lead)
	confidence := confidenceScore(lead, scoring)
	if confidence > scoring.FallbackConfidenceCap {
		confidence = scoring.FallbackConfidenceCap
	}
	lead.ConfidenceScore = confidence

	return lead
}

// stripHonorific drops a leading title so contact names read naturally.
func stripHonorific(name string) string {
	for _, prefix := range []string{"Mr.", "Mrs.", "Ms.", "Dr.", "Prof.", "Mr", "Mrs", "Ms", "Dr", "Prof"} {
		if strings.HasPrefix(name, prefix+" ") {
			return strings.TrimSpace(strings.TrimPrefix(name, prefix+" "))
		}
	}
	return name
}

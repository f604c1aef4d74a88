// Package prompts builds the prompt text sent to the AI provider for lead
// extraction and follow-up recommendations.
package prompts

import (
	"fmt"
	"strings"

	"github.com/leadforge/leadforge-engine/pkg/models"
)

// ExtractionSystemMessage frames the model as a sales analyst and pins the
// output contract to raw JSON.
func ExtractionSystemMessage() string {
	var sb strings.Builder

	sb.WriteString("You are an expert sales analyst. You read sales conversations and extract ")
	sb.WriteString("structured lead information from them.\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Extract only information explicitly stated or strongly implied in the conversation\n")
	sb.WriteString("- Never invent company names, contact details, or budget figures\n")
	sb.WriteString("- Use empty strings or empty arrays for fields the conversation does not support\n")
	sb.WriteString("- Respond with valid JSON only, no markdown fences, no commentary\n")

	return sb.String()
}

// BuildLeadExtractionPrompt renders the extraction prompt for one
// conversation. source and urgencyHint are optional caller-supplied context.
func BuildLeadExtractionPrompt(conversation, source string, urgencyHint models.UrgencyLevel) string {
	var sb strings.Builder

	sb.WriteString("Analyze the following sales conversation and extract lead information.\n\n")

	if source != "" {
		sb.WriteString(fmt.Sprintf("Conversation source: %s\n", source))
	}
	if urgencyHint != "" {
		sb.WriteString(fmt.Sprintf("Caller-reported urgency: %s\n", urgencyHint))
	}
	sb.WriteString("\nConversation:\n\"\"\"\n")
	sb.WriteString(conversation)
	sb.WriteString("\n\"\"\"\n\n")

	sb.WriteString("Return a JSON object with exactly this structure:\n")
	sb.WriteString(`{
  "company_name": "string, the prospect's company",
  "contact": {
    "name": "string",
    "email": "string",
    "phone": "string",
    "title": "string",
    "department": "string"
  },
  "pain_points": ["problems the prospect described"],
  "requirements": ["capabilities the prospect asked for"],
  "budget_info": "string, any budget or pricing signal",
  "timeline": "string, any deadline or timeframe mentioned",
  "decision_makers": ["people involved in the buying decision"],
  "industry": "string",
  "company_size": "string, headcount or revenue band if mentioned",
  "urgency_level": "high, medium, or low",
  "current_solution": "string, what they use today",
  "competitors_mentioned": ["competing vendors named"]
}`)
	sb.WriteString("\n\nReturn ONLY the JSON object. Do not wrap it in markdown fences.")

	return sb.String()
}

// RecommendationSystemMessage frames the model as a sales coach.
func RecommendationSystemMessage() string {
	return "You are a seasoned sales coach. Given a structured lead, you suggest " +
		"concrete next steps a sales rep should take. Respond with valid JSON only."
}

// BuildRecommendationPrompt renders the follow-up recommendation prompt for
// an extracted lead.
func BuildRecommendationPrompt(lead *models.Lead) string {
	var sb strings.Builder

	sb.WriteString("Suggest follow-up actions for this sales lead.\n\nLead:\n")
	sb.WriteString(fmt.Sprintf("- Company: %s\n", orUnknown(lead.CompanyName)))
	sb.WriteString(fmt.Sprintf("- Contact: %s\n", orUnknown(lead.Contact.Name)))
	if len(lead.PainPoints) > 0 {
		sb.WriteString(fmt.Sprintf("- Pain points: %s\n", strings.Join(lead.PainPoints, "; ")))
	}
	if len(lead.Requirements) > 0 {
		sb.WriteString(fmt.Sprintf("- Requirements: %s\n", strings.Join(lead.Requirements, "; ")))
	}
	if lead.BudgetInfo != "" {
		sb.WriteString(fmt.Sprintf("- Budget: %s\n", lead.BudgetInfo))
	}
	if lead.Timeline != "" {
		sb.WriteString(fmt.Sprintf("- Timeline: %s\n", lead.Timeline))
	}
	if lead.UrgencyLevel != "" {
		sb.WriteString(fmt.Sprintf("- Urgency: %s\n", lead.UrgencyLevel))
	}
	if lead.CurrentSolution != "" {
		sb.WriteString(fmt.Sprintf("- Current solution: %s\n", lead.CurrentSolution))
	}
	if len(lead.CompetitorsMentioned) > 0 {
		sb.WriteString(fmt.Sprintf("- Competitors in play: %s\n", strings.Join(lead.CompetitorsMentioned, "; ")))
	}

	sb.WriteString("\nReturn a JSON object with exactly this structure:\n")
	sb.WriteString(`{
  "next_steps": ["ordered list of concrete actions"],
  "talking_points": ["points to raise in the next touch"],
  "risk_factors": ["reasons this deal could stall"]
}`)
	sb.WriteString("\n\nReturn ONLY the JSON object.")

	return sb.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidUrgencyLevel(t *testing.T) {
	assert.True(t, IsValidUrgencyLevel(UrgencyHigh))
	assert.True(t, IsValidUrgencyLevel(UrgencyMedium))
	assert.True(t, IsValidUrgencyLevel(UrgencyLow))
	assert.False(t, IsValidUrgencyLevel(""))
	assert.False(t, IsValidUrgencyLevel("extreme"))
}

func TestContactIsEmpty(t *testing.T) {
	assert.True(t, Contact{}.IsEmpty())
	assert.False(t, Contact{Email: "a@b.co"}.IsEmpty())
	assert.False(t, Contact{Department: "Sales"}.IsEmpty())
}

func TestPopulatedFieldCount(t *testing.T) {
	assert.Equal(t, 0, (&Lead{}).PopulatedFieldCount())

	lead := &Lead{
		CompanyName:  "Acme Corp",
		Contact:      Contact{Name: "Sarah"},
		PainPoints:   []string{"slow reporting"},
		UrgencyLevel: UrgencyHigh,
	}
	assert.Equal(t, 4, lead.PopulatedFieldCount())

	full := &Lead{
		CompanyName:          "Acme Corp",
		Contact:              Contact{Name: "Sarah"},
		PainPoints:           []string{"a"},
		Requirements:         []string{"b"},
		BudgetInfo:           "$1",
		Timeline:             "Q3",
		DecisionMakers:       []string{"c"},
		Industry:             "manufacturing",
		CompanySize:          "500",
		UrgencyLevel:         UrgencyLow,
		CurrentSolution:      "spreadsheets",
		CompetitorsMentioned: []string{"d"},
	}
	assert.Equal(t, LeadFieldCount, full.PopulatedFieldCount())
}

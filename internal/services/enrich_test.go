package services

import (
	"testing"
)

func TestEnrichKnownPersonas(t *testing.T) {
	e := NewPersonaEnricher(testLogger())

	cases := []struct {
		tag   string
		style string
		view  string
	}{
		{"ENTJ", "directive", "executive_dashboard"},
		{"INTJ", "analytical", "structural_overview"},
		{"ENTP", "challenging", "possibility_explorer"},
		{"INTP", "theoretical", "logical_framework"},
		{"ENFJ", "inspiring", "community_impact"},
		{"INFJ", "supportive", "humanitarian_perspective"},
		{"ENFP", "energizing", "opportunities_landscape"},
		{"INFP", "harmonizing", "values_perspective"},
		{"ESTJ", "structured", "operational_dashboard"},
		{"ISTJ", "methodical", "detailed_records"},
		{"ESFJ", "nurturing", "community_wellbeing"},
		{"ISFJ", "protective", "safety_assessment"},
		{"ESTP", "dynamic", "live_action_feed"},
		{"ISTP", "pragmatic", "technical_overview"},
		{"ESFP", "spontaneous", "interactive_experience"},
		{"ISFP", "flexible", "aesthetic_display"},
	}

	for _, tc := range cases {
		got := e.Enrich(tc.tag, nil)
		if got == nil {
			t.Fatalf("%s: expected enrichments", tc.tag)
		}
		if got["collaborationStyle"] != tc.style {
			t.Errorf("%s: style = %v, want %s", tc.tag, got["collaborationStyle"], tc.style)
		}
		if got["preferredView"] != tc.view {
			t.Errorf("%s: view = %v, want %s", tc.tag, got["preferredView"], tc.view)
		}
	}
}

func TestEnrichCaseInsensitive(t *testing.T) {
	e := NewPersonaEnricher(testLogger())
	if got := e.Enrich("  intj ", nil); got == nil || got["collaborationStyle"] != "analytical" {
		t.Fatalf("expected INTJ profile for lowercase tag, got %v", got)
	}
}

func TestEnrichUnknownTag(t *testing.T) {
	e := NewPersonaEnricher(testLogger())
	if got := e.Enrich("XXXX", nil); got != nil {
		t.Fatalf("expected nil for unknown tag, got %v", got)
	}
	if got := e.Enrich("", nil); got != nil {
		t.Fatalf("expected nil for blank tag, got %v", got)
	}
}

func TestEnrichReturnsCopy(t *testing.T) {
	e := NewPersonaEnricher(testLogger())
	first := e.Enrich("ENTJ", nil)
	first["collaborationStyle"] = "mutated"
	second := e.Enrich("ENTJ", nil)
	if second["collaborationStyle"] != "directive" {
		t.Fatalf("profile table was mutated through a returned map")
	}
}

func TestTeamDynamics(t *testing.T) {
	e := NewPersonaEnricher(testLogger())

	insight := e.TeamDynamics([]string{"INTJ", "ENFP", "ISTJ", "INTJ"})
	dist, ok := insight["typeDistribution"].(map[string]int)
	if !ok || dist["INTJ"] != 2 || dist["ENFP"] != 1 {
		t.Fatalf("unexpected distribution: %v", insight["typeDistribution"])
	}
	strengths, _ := insight["strengthAreas"].([]string)
	if len(strengths) != 3 {
		t.Fatalf("expected NT, NF and SJ strengths, got %v", strengths)
	}
	challenges, _ := insight["potentialChallenges"].([]string)
	if len(challenges) != 1 {
		t.Fatalf("expected the introvert/extrovert balance challenge, got %v", challenges)
	}
}

package services

import (
	"encoding/json"
	"strings"

	"github.com/climatehub/collab-backend/internal/platform/logger"
)

// Enricher decorates an outgoing event with persona-specific hints the
// frontend uses to tailor the collaboration surface. Implementations
// must be pure; payload is the event body being decorated.
type Enricher interface {
	Enrich(personaTag string, payload json.RawMessage) map[string]any
	TeamDynamics(personaTags []string) map[string]any
}

type personaEnricher struct {
	log *logger.Logger
}

func NewPersonaEnricher(baseLog *logger.Logger) Enricher {
	return &personaEnricher{
		log: baseLog.With("service", "PersonaEnricher"),
	}
}

// Enrich returns nil for blank or unrecognized tags; callers publish
// the message unenriched in that case. The hints depend only on the
// tag, so the payload goes unused here.
func (e *personaEnricher) Enrich(personaTag string, _ json.RawMessage) map[string]any {
	tag := strings.ToUpper(strings.TrimSpace(personaTag))
	if tag == "" {
		return nil
	}
	profile, ok := personaProfiles[tag]
	if !ok {
		e.log.Warn("unknown persona tag", "persona_tag", tag)
		return nil
	}
	out := make(map[string]any, len(profile))
	for k, v := range profile {
		out[k] = v
	}
	return out
}

// TeamDynamics summarizes how a mix of personas is likely to work
// together.
func (e *personaEnricher) TeamDynamics(personaTags []string) map[string]any {
	distribution := map[string]int{}
	for _, t := range personaTags {
		tag := strings.ToUpper(strings.TrimSpace(t))
		if tag == "" {
			continue
		}
		distribution[tag]++
	}

	var strengths []string
	hasIntroverts := false
	hasExtroverts := false
	seen := map[string]bool{}
	for tag := range distribution {
		if strings.Contains(tag, "NT") && !seen["nt"] {
			strengths = append(strengths, "Strong analytical and strategic thinking")
			seen["nt"] = true
		}
		if strings.Contains(tag, "NF") && !seen["nf"] {
			strengths = append(strengths, "Excellent people skills and empathy")
			seen["nf"] = true
		}
		if strings.Contains(tag, "SJ") && !seen["sj"] {
			strengths = append(strengths, "Reliable execution and attention to detail")
			seen["sj"] = true
		}
		if strings.HasPrefix(tag, "I") {
			hasIntroverts = true
		}
		if strings.HasPrefix(tag, "E") {
			hasExtroverts = true
		}
	}

	var challenges []string
	if hasIntroverts && hasExtroverts {
		challenges = append(challenges, "Balance introverted reflection with extroverted action")
	}

	return map[string]any{
		"typeDistribution":    distribution,
		"strengthAreas":       strengths,
		"potentialChallenges": challenges,
		"collaborationTips": []string{
			"Leverage diverse perspectives for comprehensive solutions",
			"Ensure all voices are heard in decision-making",
			"Balance big-picture vision with practical implementation",
		},
	}
}

var personaProfiles = map[string]map[string]any{
	"ENTJ": {
		"leadershipMode":     true,
		"showStrategicView":  true,
		"enableGoalTracking": true,
		"priorityHighlight":  "high",
		"decisionSupport": []string{
			"Strategic implication analysis",
			"Resource allocation optimizer",
			"Timeline projections",
		},
		"collaborationStyle": "directive",
		"preferredView":      "executive_dashboard",
	},
	"INTJ": {
		"structuredMode":         true,
		"showSystemPatterns":     true,
		"enableLongTermPlanning": true,
		"dataDepth":              "comprehensive",
		"analysisTools": []string{
			"Pattern recognition",
			"Predictive modeling",
			"System architecture view",
		},
		"collaborationStyle": "analytical",
		"preferredView":      "structural_overview",
	},
	"ENTP": {
		"innovationMode":      true,
		"showAlternatives":    true,
		"enableBrainstorming": true,
		"explorationDepth":    "broad",
		"creativeTools": []string{
			"What-if scenarios",
			"Alternative solutions",
			"Debate perspectives",
		},
		"collaborationStyle": "challenging",
		"preferredView":      "possibility_explorer",
	},
	"INTP": {
		"logicalMode":           true,
		"showDataRelationships": true,
		"enableDeepAnalysis":    true,
		"precisionLevel":        "maximum",
		"analyticalTools": []string{
			"Logical consistency checker",
			"Causal relationship mapper",
			"Theoretical frameworks",
		},
		"collaborationStyle": "theoretical",
		"preferredView":      "logical_framework",
	},
	"ENFJ": {
		"harmonyMode":      true,
		"showTeamDynamics": true,
		"enableMentoring":  true,
		"socialAwareness":  "high",
		"peopleTools": []string{
			"Team collaboration insights",
			"Consensus builder",
			"Impact on communities",
		},
		"collaborationStyle": "inspiring",
		"preferredView":      "community_impact",
	},
	"INFJ": {
		"empathyMode":         true,
		"showHumanImpact":     true,
		"enableVisionSharing": true,
		"insightDepth":        "profound",
		"empathyTools": []string{
			"Human impact visualization",
			"Long-term vision mapper",
			"Values alignment checker",
		},
		"collaborationStyle": "supportive",
		"preferredView":      "humanitarian_perspective",
	},
	"ENFP": {
		"enthusiasmMode":            true,
		"showOpportunities":         true,
		"enableCreativeExploration": true,
		"energyLevel":               "high",
		"inspirationTools": []string{
			"Opportunity finder",
			"Connection mapper",
			"Inspiration board",
		},
		"collaborationStyle": "energizing",
		"preferredView":      "opportunities_landscape",
	},
	"INFP": {
		"valuesMode":           true,
		"showMeaningfulImpact": true,
		"enableReflection":     true,
		"authenticityLevel":    "high",
		"meaningTools": []string{
			"Values impact analysis",
			"Authenticity checker",
			"Personal meaning finder",
		},
		"collaborationStyle": "harmonizing",
		"preferredView":      "values_perspective",
	},
	"ESTJ": {
		"organizationMode":     true,
		"showProcessFlow":      true,
		"enableTaskManagement": true,
		"efficiencyLevel":      "maximum",
		"managementTools": []string{
			"Task organizer",
			"Process optimizer",
			"Standards compliance",
		},
		"collaborationStyle": "structured",
		"preferredView":      "operational_dashboard",
	},
	"ISTJ": {
		"reliabilityMode":      true,
		"showDetailedData":     true,
		"enableAccuracyChecks": true,
		"precisionLevel":       "high",
		"reliabilityTools": []string{
			"Data validation",
			"Historical comparison",
			"Accuracy metrics",
		},
		"collaborationStyle": "methodical",
		"preferredView":      "detailed_records",
	},
	"ESFJ": {
		"supportMode":        true,
		"showCommunityNeeds": true,
		"enableGroupSupport": true,
		"careLevel":          "high",
		"supportTools": []string{
			"Community needs tracker",
			"Group harmony monitor",
			"Support coordinator",
		},
		"collaborationStyle": "nurturing",
		"preferredView":      "community_wellbeing",
	},
	"ISFJ": {
		"protectiveMode":      true,
		"showVulnerabilities": true,
		"enableCareTracking":  true,
		"attentionToDetail":   "high",
		"careTools": []string{
			"Vulnerability assessment",
			"Protection planner",
			"Care history",
		},
		"collaborationStyle": "protective",
		"preferredView":      "safety_assessment",
	},
	"ESTP": {
		"actionMode":          true,
		"showRealTimeUpdates": true,
		"enableQuickActions":  true,
		"updateFrequency":     "high",
		"actionTools": []string{
			"Real-time alerts",
			"Quick decision support",
			"Action tracker",
		},
		"collaborationStyle": "dynamic",
		"preferredView":      "live_action_feed",
	},
	"ISTP": {
		"practicalMode":         true,
		"showMechanics":         true,
		"enableTroubleshooting": true,
		"technicalDepth":        "high",
		"technicalTools": []string{
			"System diagnostics",
			"Problem solver",
			"Technical analysis",
		},
		"collaborationStyle": "pragmatic",
		"preferredView":      "technical_overview",
	},
	"ESFP": {
		"engagementMode":      true,
		"showVisualAppeal":    true,
		"enableSocialSharing": true,
		"interactivityLevel":  "high",
		"engagementTools": []string{
			"Visual storytelling",
			"Social sharing",
			"Interactive elements",
		},
		"collaborationStyle": "spontaneous",
		"preferredView":      "interactive_experience",
	},
	"ISFP": {
		"aestheticMode":            true,
		"showVisualBeauty":         true,
		"enableCreativeExpression": true,
		"aestheticLevel":           "high",
		"creativeTools": []string{
			"Visual customization",
			"Artistic perspectives",
			"Sensory experience",
		},
		"collaborationStyle": "flexible",
		"preferredView":      "aesthetic_display",
	},
}

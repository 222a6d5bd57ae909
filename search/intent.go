package search

import "strings"

// GeneralIntent is the fallback intent when no trigger word matches.
const GeneralIntent = "general"

// intentPattern associates an intent label with its trigger words.
// Patterns are matched in order and the first hit wins, so "combien"
// classifies as pricing even though "comment" would match process.
type intentPattern struct {
	intent   string
	triggers []string
}

// French trigger words for the intents the answer prompts know about.
var intentPatterns = []intentPattern{
	{"pricing", []string{"prix", "coût", "tarif", "combien", "frais", "facturation"}},
	{"comparison", []string{"différence", "comparer", "mieux", "choisir", "avantage", "vs"}},
	{"contact", []string{"contact", "téléphone", "email", "rendez-vous", "joindre"}},
	{"definition", []string{"qu'est-ce", "définition", "c'est quoi", "signifie"}},
	{"process", []string{"comment", "étapes", "procédure", "démarche"}},
	{"requirements", []string{"conditions", "critères", "éligible", "requis"}},
}

// ClassifyIntent returns the intent label of a query by case-insensitive
// substring matching against the trigger table. Unmatched queries are
// classified as GeneralIntent.
func ClassifyIntent(query string) string {
	lowered := strings.ToLower(query)
	for _, pattern := range intentPatterns {
		for _, trigger := range pattern.triggers {
			if strings.Contains(lowered, trigger) {
				return pattern.intent
			}
		}
	}
	return GeneralIntent
}

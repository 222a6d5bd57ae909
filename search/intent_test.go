package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyIntent(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"Quel est le prix du portage salarial ?", "pricing"},
		{"Combien coûte votre service ?", "pricing"},
		{"Quelle est la différence entre portage et freelance ?", "comparison"},
		{"Comment vous joindre par téléphone ?", "contact"},
		{"Qu'est-ce que le portage salarial ?", "definition"},
		{"Comment se passe l'inscription ?", "process"},
		{"Quelles sont les conditions d'éligibilité ?", "requirements"},
		{"Parlez-moi de votre entreprise", GeneralIntent},
		{"", GeneralIntent},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyIntent(tt.query), "query: %s", tt.query)
	}
}

func TestClassifyIntentIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, "pricing", ClassifyIntent("QUEL EST LE TARIF ?"))
}

func TestClassifyIntentFirstPatternWins(t *testing.T) {
	// "combien" (pricing) and "comment" (process) could both match; the
	// pricing pattern is checked first.
	assert.Equal(t, "pricing", ClassifyIntent("comment savoir combien ça coûte"))
}

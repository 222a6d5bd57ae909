package openai

import (
	"fmt"
	"strings"

	"github.com/optimfinance/kbase/core"
)

const answerSystemPrompt = `Tu es l'assistant virtuel expert d'OPTIM Finance, spécialisé dans les solutions financières pour freelances IT.

INSTRUCTIONS :
- Réponds de manière professionnelle et chaleureuse
- Utilise UNIQUEMENT les informations du contexte fourni
- Sois précis sur les chiffres (tarifs, pourcentages, délais)
- %s
- Sois concis mais complet (maximum 300 mots)
- Si l'information n'est pas dans le contexte, dis-le clairement et propose de contacter %s
- Réponds UNIQUEMENT à la question posée`

// intentInstructions tailors the prompt to the classified query intent.
// The intent is advisory; an unknown label falls through to a generic line.
var intentInstructions = map[string]string{
	"pricing":    "Mets l'accent sur les tarifs exacts et les coûts détaillés.",
	"comparison": "Compare clairement les différentes solutions en listant les avantages et inconvénients.",
	"contact":    "Propose un contact direct avec l'équipe.",
	"definition": "Explique clairement les concepts avec des définitions précises.",
	"process":    "Détaille la procédure étape par étape.",
	"general":    "Fournis une réponse complète et professionnelle.",
}

func buildAnswerSystemPrompt(intent, contactEmail string) string {
	instruction, ok := intentInstructions[intent]
	if !ok {
		instruction = "Fournis une réponse claire et professionnelle."
	}
	return fmt.Sprintf(answerSystemPrompt, instruction, contactEmail)
}

// buildAnswerUserPrompt renders the retrieved chunks as a context block
// followed by the client question.
func buildAnswerUserPrompt(query string, results []*core.ScoredChunk) string {
	var b strings.Builder

	b.WriteString("CONTEXTE PERTINENT :\n")
	if len(results) == 0 {
		b.WriteString("Informations limitées disponibles dans notre base de connaissances.\n")
	}
	for _, result := range results {
		if result.Chunk == nil || strings.TrimSpace(result.Chunk.Content) == "" {
			continue
		}
		fmt.Fprintf(&b, "**%s**\n%s\n\n", result.Chunk.Title, result.Chunk.Content)
	}

	fmt.Fprintf(&b, "\nQUESTION DU CLIENT : %s\n\nRÉPONSE :", query)
	return b.String()
}

package chunker

// stopWords are French and English function words excluded from keyword
// extraction.
var stopWords = map[string]bool{
	// English
	"the": true, "and": true, "that": true, "have": true, "for": true,
	"not": true, "with": true, "this": true, "but": true, "from": true,
	"they": true, "will": true, "would": true, "there": true, "their": true,
	"what": true, "about": true, "which": true, "when": true, "your": true,
	"been": true, "into": true, "than": true, "then": true, "them": true,
	"these": true, "some": true, "could": true, "other": true, "also": true,
	"more": true, "very": true, "such": true, "over": true, "only": true,

	// French
	"dans": true, "avec": true, "pour": true, "vous": true, "nous": true,
	"votre": true, "notre": true, "cette": true, "sont": true, "être": true,
	"avoir": true, "plus": true, "tout": true, "tous": true, "toutes": true,
	"comme": true, "mais": true, "elle": true, "ils": true, "elles": true,
	"leur": true, "leurs": true, "même": true, "aussi": true, "bien": true,
	"fait": true, "peut": true, "sans": true, "entre": true, "ainsi": true,
	"donc": true, "alors": true, "chez": true, "chaque": true, "cela": true,
	"celui": true, "celle": true, "dont": true, "lors": true, "selon": true,
}

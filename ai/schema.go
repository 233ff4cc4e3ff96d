package ai

import "google.golang.org/genai"

// Profile schema property names, in the order the model is asked to emit them.
var ProfileFields = []string{
	"name", "baseName", "catchphrase", "description", "famousLine", "strengths",
	"weaknesses", "visualDescription", "strategy", "idealPartner", "successRate",
	"idealPartnerVisualDescription",
}

// Match schema property names.
var MatchFields = []string{"matchScore", "scenario", "verdict"}

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

// ProfileSchema is the response schema for a character profile. Every property is required.
func ProfileSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":        str("A creative title + name (e.g. 'The Strategist Young-soo')"),
			"baseName":    str("Just the character name (e.g. 'Young-soo', 'Ok-soon')"),
			"catchphrase": str("A short, funny quote that represents them"),
			"description": str("A witty paragraph describing their dating style in the show"),
			"famousLine":  str("A parody of a famous line from the show"),
			"strengths": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "3 key strengths",
			},
			"weaknesses": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "3 key weaknesses",
			},
			"visualDescription": str("A short English description of their face/style for an image generator " +
				"(e.g., 'A handsome Korean man in a suit, sharp glasses, serious expression')."),
			"strategy": str("Strategic advice on how this character can become a final couple " +
				"(e.g. 'Focus on one person', 'Don't drink too much')."),
			"idealPartner": str("The specific type of partner that suits them best " +
				"(e.g. 'A calm Young-chul', 'A rich Young-sook')."),
			"successRate": {
				Type:        genai.TypeInteger,
				Description: "The probability (0-100) of successfully becoming a couple.",
			},
			"idealPartnerVisualDescription": str("Visual description of the ideal partner in English."),
		},
		PropertyOrdering: ProfileFields,
		Required:         ProfileFields,
	}
}

// MatchSchema is the response schema for a compatibility report.
func MatchSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"matchScore": {Type: genai.TypeInteger, Description: "Percentage 0-100"},
			"scenario":   str("A short story of their first date"),
			"verdict":    str("Final verdict (e.g., Marriage Material, Toxic Relationship)"),
		},
		PropertyOrdering: MatchFields,
		Required:         MatchFields,
	}
}

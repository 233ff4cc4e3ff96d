package models

import "fmt"

// CharacterProfile is the generated persona. All fields are required at the
// parse boundary, so a profile is either absent or complete.
type CharacterProfile struct {
	Name                          string   `json:"name"`
	BaseName                      string   `json:"baseName"`
	Catchphrase                   string   `json:"catchphrase"`
	Description                   string   `json:"description"`
	FamousLine                    string   `json:"famousLine"`
	Strengths                     []string `json:"strengths"`
	Weaknesses                    []string `json:"weaknesses"`
	VisualDescription             string   `json:"visualDescription"`
	Strategy                      string   `json:"strategy"`
	IdealPartner                  string   `json:"idealPartner"`
	SuccessRate                   int      `json:"successRate"`
	IdealPartnerVisualDescription string   `json:"idealPartnerVisualDescription"`
}

// MatchResult is the outcome of a compatibility check.
type MatchResult struct {
	MatchScore int    `json:"matchScore"`
	Scenario   string `json:"scenario"`
	Verdict    string `json:"verdict"`
}

// Portrait is an inline image: a mime type plus base64 text.
type Portrait struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// DataURL renders the portrait as a data: URL for direct embedding.
func (p Portrait) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", p.MimeType, p.Data)
}

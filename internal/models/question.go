package models

// TraitCount is the number of trait axes carried by every option.
const TraitCount = 5

// Option is one answer to a question. Traits is positionally aligned to
// aggressiveness, empathy, realism, humor, style.
type Option struct {
	ID     string          `json:"id" yaml:"id"`
	Text   string          `json:"text" yaml:"text"`
	Traits [TraitCount]int `json:"traits" yaml:"traits"`
}

// Question is an immutable entry of the question pool.
type Question struct {
	ID      int      `json:"id" yaml:"id"`
	Text    string   `json:"text" yaml:"text"`
	Options []Option `json:"options" yaml:"options"`
}

// Option returns the option with the given id.
func (q Question) Option(id string) (Option, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

package models

import "fmt"

// Gender is the contestant gender chosen once per session.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ParseGender validates a raw gender value.
func ParseGender(s string) (Gender, error) {
	switch Gender(s) {
	case GenderMale, GenderFemale:
		return Gender(s), nil
	}
	return "", fmt.Errorf("unknown gender %q", s)
}

// Opposite returns the other gender; used for the ideal partner.
func (g Gender) Opposite() Gender {
	if g == GenderMale {
		return GenderFemale
	}
	return GenderMale
}

// Term is the English label used inside prompts.
func (g Gender) Term() string {
	if g == GenderMale {
		return "Male"
	}
	return "Female"
}

// PortraitSubject reinforces the subject gender in image prompts.
func (g Gender) PortraitSubject() string {
	if g == GenderMale {
		return "Korean man"
	}
	return "Korean woman"
}

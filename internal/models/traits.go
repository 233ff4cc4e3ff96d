package models

// RadarMax is the shared upper bound of the radar chart axes.
const RadarMax = 50

// UserTraits accumulates option deltas. It never clamps.
type UserTraits struct {
	Aggressiveness int `json:"aggressiveness"`
	Empathy        int `json:"empathy"`
	Realism        int `json:"realism"`
	Humor          int `json:"humor"`
	Style          int `json:"style"`
}

// Add returns t plus the option's deltas.
func (t UserTraits) Add(o Option) UserTraits {
	return UserTraits{
		Aggressiveness: t.Aggressiveness + o.Traits[0],
		Empathy:        t.Empathy + o.Traits[1],
		Realism:        t.Realism + o.Traits[2],
		Humor:          t.Humor + o.Traits[3],
		Style:          t.Style + o.Traits[4],
	}
}

// Sum folds a sequence of chosen options into traits, starting from zero.
func Sum(options ...Option) UserTraits {
	var t UserTraits
	for _, o := range options {
		t = t.Add(o)
	}
	return t
}

// RadarAxis is one labelled value handed to the chart renderer.
type RadarAxis struct {
	Subject  string `json:"subject"`
	Value    int    `json:"value"`
	FullMark int    `json:"fullMark"`
}

// Axes lists the traits in chart order.
func (t UserTraits) Axes() []RadarAxis {
	return []RadarAxis{
		{Subject: "직진력(Aggro)", Value: t.Aggressiveness, FullMark: RadarMax},
		{Subject: "공감력(Empathy)", Value: t.Empathy, FullMark: RadarMax},
		{Subject: "현실감(Realism)", Value: t.Realism, FullMark: RadarMax},
		{Subject: "예능감(Humor)", Value: t.Humor, FullMark: RadarMax},
		{Subject: "자기애(Style)", Value: t.Style, FullMark: RadarMax},
	}
}

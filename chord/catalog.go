package chord

import (
	"github.com/fretwise/chordloop/algorithms/chroma"
)

// Quality represents the quality/type of a chord
type Quality int

const (
	QualityMajor Quality = iota
	QualityMinor
	QualityDom7
	QualityMaj7
	QualityMin7
	QualitySixth
	QualityMinSixth
	QualityAdd9
	QualitySus2
	QualitySus4
	QualityPower
	QualityUnknown
)

// Suffix returns the symbol suffix for the quality ("" for major)
func (q Quality) Suffix() string {
	switch q {
	case QualityMajor:
		return ""
	case QualityMinor:
		return "m"
	case QualityDom7:
		return "7"
	case QualityMaj7:
		return "maj7"
	case QualityMin7:
		return "m7"
	case QualitySixth:
		return "6"
	case QualityMinSixth:
		return "m6"
	case QualityAdd9:
		return "add9"
	case QualitySus2:
		return "sus2"
	case QualitySus4:
		return "sus4"
	case QualityPower:
		return "5"
	default:
		return "?"
	}
}

// HasMinorThird reports whether the quality is built on a minor third
func (q Quality) HasMinorThird() bool {
	switch q {
	case QualityMinor, QualityMin7, QualityMinSixth:
		return true
	default:
		return false
	}
}

// Template is a chord shape: the semitone intervals from the root that
// define it.
type Template struct {
	Quality   Quality `json:"quality"`
	Name      string  `json:"name"`
	Intervals []int   `json:"intervals"`
}

// DefaultCatalog returns the chord templates evaluated during matching,
// ordered most-specific-first (four-note shapes before triads before
// dyads) so near-tie scores resolve toward the more specific chord.
func DefaultCatalog() []Template {
	return []Template{
		{Quality: QualityDom7, Name: "dominant7", Intervals: []int{0, 4, 7, 10}},
		{Quality: QualityMaj7, Name: "major7", Intervals: []int{0, 4, 7, 11}},
		{Quality: QualityMin7, Name: "minor7", Intervals: []int{0, 3, 7, 10}},
		{Quality: QualitySixth, Name: "sixth", Intervals: []int{0, 4, 7, 9}},
		{Quality: QualityMinSixth, Name: "minor-sixth", Intervals: []int{0, 3, 7, 9}},
		{Quality: QualityAdd9, Name: "add9", Intervals: []int{0, 2, 4, 7}},
		{Quality: QualityMajor, Name: "major", Intervals: []int{0, 4, 7}},
		{Quality: QualityMinor, Name: "minor", Intervals: []int{0, 3, 7}},
		{Quality: QualitySus2, Name: "sus2", Intervals: []int{0, 2, 7}},
		{Quality: QualitySus4, Name: "sus4", Intervals: []int{0, 5, 7}},
		{Quality: QualityPower, Name: "power", Intervals: []int{0, 7}},
	}
}

// Symbol builds the canonical chord symbol, e.g. root 9 + QualityDom7 -> "A7"
func Symbol(root int, quality Quality) string {
	if root < 0 || root >= chroma.NumPitchClasses {
		return ""
	}
	return chroma.NoteNames[root] + quality.Suffix()
}

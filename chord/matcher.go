package chord

import (
	"math"
	"sort"

	"github.com/fretwise/chordloop/algorithms/chroma"
)

// Candidate represents a scored chord hypothesis
type Candidate struct {
	Root    int     `json:"root"`    // Root pitch class (0=C ... 11=B)
	Quality Quality `json:"quality"` // Chord quality
	Score   float64 `json:"score"`   // Match score (0-1)
	Symbol  string  `json:"symbol"`  // Canonical symbol, e.g. "A7"
	Raw     string  `json:"raw,omitempty"` // Symbol before root/extension refinement
}

// MatcherParams contains tunable thresholds for catalog matching. The
// defaults are calibration starting points, not guarantees; hosts that
// care should expose them for tuning.
type MatcherParams struct {
	MinScore      float64 `json:"min_score"`      // Best score below this yields no chord
	NoteThreshold float64 `json:"note_threshold"` // Normalized bin value that counts as "present"
	TieMargin     float64 `json:"tie_margin"`     // Scores within this margin count as tied

	// Root refinement: switch to the +5/+7 neighbor root when its triad
	// outscores the current one by this fraction
	RootSwitchMargin float64 `json:"root_switch_margin"`

	// Extension detection, as a ratio of the extension bin's energy to the
	// triad's peak bin. Declaring a new extension needs more evidence than
	// keeping one that is already showing (hysteresis).
	SeventhDeclareRatio float64 `json:"seventh_declare_ratio"`
	SeventhSustainRatio float64 `json:"seventh_sustain_ratio"`
	Maj7DeclareRatio    float64 `json:"maj7_declare_ratio"` // Higher: the major 7th is a common overtone artifact
	Maj7SustainRatio    float64 `json:"maj7_sustain_ratio"`
	NinthDeclareRatio   float64 `json:"ninth_declare_ratio"`
	NinthSustainRatio   float64 `json:"ninth_sustain_ratio"`
}

// DefaultMatcherParams returns the default matching thresholds
func DefaultMatcherParams() MatcherParams {
	return MatcherParams{
		MinScore:            0.6,
		NoteThreshold:       0.2,
		TieMargin:           0.05,
		RootSwitchMargin:    0.05,
		SeventhDeclareRatio: 0.45,
		SeventhSustainRatio: 0.30,
		Maj7DeclareRatio:    0.50,
		Maj7SustainRatio:    0.35,
		NinthDeclareRatio:   0.45,
		NinthSustainRatio:   0.30,
	}
}

// Matcher scores a pitch-class profile against the chord catalog.
// Scoring rewards completeness (the chord's defining notes are present)
// and penalizes stray energy (detected energy outside the defining
// notes), so a clean three-note triad beats a sloppy four-note shape.
type Matcher struct {
	params  MatcherParams
	catalog []Template
}

// NewMatcher creates a matcher over the default catalog
func NewMatcher() *Matcher {
	return NewMatcherWithParams(DefaultMatcherParams())
}

// NewMatcherWithParams creates a matcher with custom thresholds
func NewMatcherWithParams(params MatcherParams) *Matcher {
	return &Matcher{
		params:  params,
		catalog: DefaultCatalog(),
	}
}

// Match scores the profile against every root and quality and returns the
// refined best candidate. held is the chord currently displayed by the
// caller (nil if none); it drives the extension hysteresis so a sustained
// "A7" does not flicker back to "A" as the seventh decays. The second
// return is false when no candidate clears MinScore.
func (m *Matcher) Match(profile chroma.PitchClassProfile, held *Candidate) (Candidate, bool) {
	if profile.IsZero() {
		return Candidate{}, false
	}

	type scored struct {
		root      int
		template  Template
		score     float64
		intervals int
	}

	var candidates []scored
	for _, template := range m.catalog {
		for root := 0; root < chroma.NumPitchClasses; root++ {
			score := m.scoreTemplate(profile.Values, root, template.Intervals)
			if score > 0 {
				candidates = append(candidates, scored{
					root:      root,
					template:  template,
					score:     score,
					intervals: len(template.Intervals),
				})
			}
		}
	}

	if len(candidates) == 0 {
		return Candidate{}, false
	}

	// Highest score first; the catalog is most-specific-first, so a stable
	// sort keeps specific shapes ahead inside exact ties
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	// Near-ties resolve toward the candidate with more defining notes
	best := candidates[0]
	for _, c := range candidates[1:] {
		if best.score-c.score > m.params.TieMargin {
			break
		}
		if c.intervals > best.intervals {
			best = c
		}
	}

	if best.score < m.params.MinScore {
		return Candidate{}, false
	}

	result := Candidate{
		Root:    best.root,
		Quality: best.template.Quality,
		Score:   math.Min(best.score, 1.0),
		Raw:     Symbol(best.root, best.template.Quality),
	}

	result = m.refineRoot(profile, result)
	result = m.refineExtensions(profile, result, held)
	result.Symbol = Symbol(result.Root, result.Quality)

	return result, true
}

// scoreTemplate computes completeness x ownership for one root/shape pair
func (m *Matcher) scoreTemplate(values []float64, root int, intervals []int) float64 {
	present := 0
	defining := 0.0
	for _, interval := range intervals {
		v := values[(root+interval)%chroma.NumPitchClasses]
		if v >= m.params.NoteThreshold {
			present++
		}
		defining += v
	}

	total := 0.0
	for _, v := range values {
		total += v
	}
	if total < 1e-10 {
		return 0.0
	}

	completeness := float64(present) / float64(len(intervals))
	ownership := defining / total

	return completeness * ownership
}

// refineRoot corrects common neighbor misreads: the subdominant (+5) and
// dominant (+7) of the matched root share two of three triad tones with
// it, so a slightly better-scoring neighbor triad usually means the
// fold picked the wrong root. Sus and power shapes are left alone since
// they have no third to disambiguate with.
func (m *Matcher) refineRoot(profile chroma.PitchClassProfile, cand Candidate) Candidate {
	switch cand.Quality {
	case QualitySus2, QualitySus4, QualityPower:
		return cand
	}

	triad := []int{0, 4, 7}
	if cand.Quality.HasMinorThird() {
		triad = []int{0, 3, 7}
	}

	currentScore := m.scoreTemplate(profile.Values, cand.Root, triad)
	bestRoot := cand.Root
	bestScore := currentScore

	for _, shift := range []int{5, 7} {
		altRoot := (cand.Root + shift) % chroma.NumPitchClasses
		altScore := m.scoreTemplate(profile.Values, altRoot, triad)
		if altScore > bestScore && altScore > currentScore*(1.0+m.params.RootSwitchMargin) {
			bestRoot = altRoot
			bestScore = altScore
		}
	}

	if bestRoot != cand.Root {
		cand.Root = bestRoot
		cand.Score = math.Min(bestScore, 1.0)
	}

	return cand
}

// refineExtensions decides whether the triad carries a seventh or ninth by
// comparing the extension bin against the triad's strongest bin. The
// threshold to keep an extension the caller is already displaying is lower
// than the threshold to declare a new one.
func (m *Matcher) refineExtensions(profile chroma.PitchClassProfile, cand Candidate, held *Candidate) Candidate {
	switch cand.Quality {
	case QualitySus2, QualitySus4, QualityPower, QualitySixth, QualityMinSixth:
		return cand
	}

	triad := []int{0, 4, 7}
	if cand.Quality.HasMinorThird() {
		triad = []int{0, 3, 7}
	}

	triadPeak := 0.0
	for _, interval := range triad {
		v := profile.Values[(cand.Root+interval)%chroma.NumPitchClasses]
		if v > triadPeak {
			triadPeak = v
		}
	}
	if triadPeak < 1e-10 {
		return cand
	}

	bin := func(interval int) float64 {
		return profile.Values[(cand.Root+interval)%chroma.NumPitchClasses] / triadPeak
	}

	holding := func(q Quality) bool {
		return held != nil && held.Root == cand.Root && held.Quality == q
	}

	ratio := func(declare, sustain float64, q Quality) float64 {
		if holding(q) {
			return sustain
		}
		return declare
	}

	if cand.Quality.HasMinorThird() {
		if bin(10) >= ratio(m.params.SeventhDeclareRatio, m.params.SeventhSustainRatio, QualityMin7) {
			cand.Quality = QualityMin7
		} else {
			cand.Quality = QualityMinor
		}
		return cand
	}

	// Major-third family: flat seventh wins over major seventh, which wins
	// over an added ninth
	switch {
	case bin(10) >= ratio(m.params.SeventhDeclareRatio, m.params.SeventhSustainRatio, QualityDom7):
		cand.Quality = QualityDom7
	case bin(11) >= ratio(m.params.Maj7DeclareRatio, m.params.Maj7SustainRatio, QualityMaj7):
		cand.Quality = QualityMaj7
	case bin(2) >= ratio(m.params.NinthDeclareRatio, m.params.NinthSustainRatio, QualityAdd9):
		cand.Quality = QualityAdd9
	default:
		cand.Quality = QualityMajor
	}

	return cand
}

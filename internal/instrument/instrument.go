package instrument

import (
	"github.com/StanfordBioinformatics/trajectoread-monitor/lib/textutil"

	"github.com/antzucaro/matchr"
)

// SequencerType is the label totals are grouped under.
type SequencerType string

const (
	HiSeq4000 SequencerType = "HiSeq_4000"
	HiSeq2500 SequencerType = "HiSeq_2500"
	MiSeq     SequencerType = "MiSeq"
	// HiSeq2000 is the label of every instrument that is not listed below,
	// old sequencing records were all produced by HiSeq 2000s.
	HiSeq2000 SequencerType = "HiSeq_2000"
)

// names as they appear in the LIMS, these have to be kept in sync by hand
// when instruments are added or retired.
var (
	hiseq4000s = []string{"Gadget", "Cooper"}
	// HiSeq 2500 : Software Version: HCS 2.0.5
	hiseq2500s = []string{"Briscoe", "Marple"}
	miseqs     = []string{"Holmes", "Spenser"}
)

var byName = func() map[string]SequencerType {
	table := map[string]SequencerType{}
	for _, name := range hiseq4000s {
		table[name] = HiSeq4000
	}
	for _, name := range hiseq2500s {
		table[name] = HiSeq2500
	}
	for _, name := range miseqs {
		table[name] = MiSeq
	}
	return table
}()

// Classify returns the sequencer type of a named instrument. The name is
// matched exactly, anything unknown is classified as HiSeq2000.
func Classify(name string) SequencerType {
	seqType, ok := byName[name]
	if !ok {
		return HiSeq2000
	}
	return seqType
}

// Known reports whether the name is listed in one of the instrument sets.
func Known(name string) bool {
	_, ok := byName[name]
	return ok
}

// Suggest returns the listed instrument name most similar to `name` along
// with its Jaro-Winkler similarity. It is only a diagnostic, it never
// affects Classify.
func Suggest(name string) (string, float64) {
	normalized := textutil.NormalizeName(name)

	var best string
	var bestSimilarity float64
	for known := range byName {
		similarity := matchr.JaroWinkler(normalized, textutil.NormalizeName(known), false)
		if similarity > bestSimilarity || (similarity == bestSimilarity && known < best) {
			best = known
			bestSimilarity = similarity
		}
	}
	return best, bestSimilarity
}

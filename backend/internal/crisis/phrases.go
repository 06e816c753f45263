package crisis

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Phrase categories, in the order their hits are reported
const (
	CategorySuicidal = "suicidal"
	CategorySelfHarm = "self_harm"
	CategoryCrisis   = "crisis"
	CategoryUrgent   = "urgent"
)

// PhraseSet holds the lowercase phrases matched against input text.
// A PhraseSet is read-only once handed to a Classifier.
type PhraseSet struct {
	Suicidal []string `yaml:"suicidal"`
	SelfHarm []string `yaml:"self_harm"`
	Crisis   []string `yaml:"crisis"`
	Urgent   []string `yaml:"urgent"`
}

// DefaultPhraseSet returns a fresh copy of the built-in phrase lists
func DefaultPhraseSet() *PhraseSet {
	return &PhraseSet{
		Suicidal: []string{
			"suicide",
			"kill myself",
			"end my life",
			"want to die",
			"better off dead",
			"no point in living",
			"no point living",
			"end it all",
			"take my life",
			"not worth living",
			"feeling suicidal",
		},
		SelfHarm: []string{
			"hurt myself",
			"self harm",
			"self-harm",
			"cut myself",
			"harm myself",
			"punish myself",
		},
		Crisis: []string{
			"give up",
			"no hope",
			"cant go on",
			"can't take it",
			"overwhelming pain",
			"unbearable",
			"desperate",
			"trapped",
			"hopeless",
			"worthless",
			"no hope left",
			"plan to end it",
		},
		Urgent: []string{
			"right now",
			"tonight",
			"today",
			"plan to",
			"going to",
		},
	}
}

// ParsePhraseSet reads a YAML phrase file. Categories missing from the
// document keep their built-in lists.
func ParsePhraseSet(data []byte) (*PhraseSet, error) {
	var raw PhraseSet
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse phrase YAML: %w", err)
	}

	set := DefaultPhraseSet()
	if raw.Suicidal != nil {
		set.Suicidal = normalizePhrases(raw.Suicidal)
	}
	if raw.SelfHarm != nil {
		set.SelfHarm = normalizePhrases(raw.SelfHarm)
	}
	if raw.Crisis != nil {
		set.Crisis = normalizePhrases(raw.Crisis)
	}
	if raw.Urgent != nil {
		set.Urgent = normalizePhrases(raw.Urgent)
	}

	if set.Len() == 0 {
		return nil, fmt.Errorf("phrase set is empty")
	}
	return set, nil
}

// LoadPhraseSet reads and parses a phrase file from disk
func LoadPhraseSet(path string) (*PhraseSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read phrase file: %w", err)
	}
	return ParsePhraseSet(data)
}

// Len returns the total number of phrases across all categories
func (p *PhraseSet) Len() int {
	return len(p.Suicidal) + len(p.SelfHarm) + len(p.Crisis) + len(p.Urgent)
}

func (p *PhraseSet) clone() *PhraseSet {
	return &PhraseSet{
		Suicidal: append([]string(nil), p.Suicidal...),
		SelfHarm: append([]string(nil), p.SelfHarm...),
		Crisis:   append([]string(nil), p.Crisis...),
		Urgent:   append([]string(nil), p.Urgent...),
	}
}

func normalizePhrases(phrases []string) []string {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

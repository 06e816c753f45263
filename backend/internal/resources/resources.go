package resources

import (
	"sort"
)

// Channel types
const (
	TypeVoice = "voice"
	TypeText  = "text"
)

// Resource is an emergency contact option offered to a person in crisis
type Resource struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Number   string `yaml:"number" json:"number"`
	Type     string `yaml:"type" json:"type"`         // voice, text
	Priority int    `yaml:"priority" json:"priority"` // 1 = first choice
	Keyword  string `yaml:"keyword,omitempty" json:"keyword,omitempty"`
}

// DefaultResources returns the built-in US crisis contacts
func DefaultResources() []Resource {
	return []Resource{
		{
			ID:       "988_lifeline",
			Name:     "988 Suicide & Crisis Lifeline",
			Number:   "988",
			Type:     TypeVoice,
			Priority: 1,
		},
		{
			ID:       "crisis_text_line",
			Name:     "Crisis Text Line",
			Number:   "741741",
			Type:     TypeText,
			Priority: 1,
			Keyword:  "HOME",
		},
		{
			ID:       "emergency_services",
			Name:     "Emergency Services",
			Number:   "911",
			Type:     TypeVoice,
			Priority: 2,
		},
		{
			ID:       "988_text",
			Name:     "988 Lifeline Text",
			Number:   "988",
			Type:     TypeText,
			Priority: 2,
		},
	}
}

// sortByPriority orders resources by ascending priority, then ID
func sortByPriority(list []Resource) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority < list[j].Priority
		}
		return list[i].ID < list[j].ID
	})
}

// ValidType reports whether t is a known channel type
func ValidType(t string) bool {
	return t == TypeVoice || t == TypeText
}

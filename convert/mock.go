package convert

import (
	"github.com/ZaguanLabs/hanconv"
)

// Mock is a scripted converter for testing.
type Mock struct {
	Replacements map[string]string // Per-character (or phrase) replacements
	Variant      hanconv.Variant   // Last variant passed to SetConversion
	SetCalls     int               // Number of SetConversion calls
	ConvertCalls int               // Number of Convert calls
	SetErr       error             // Error to return from SetConversion
}

// NewMock creates a mock converter with a small traditional-to-simplified table.
func NewMock() *Mock {
	return &Mock{
		Replacements: map[string]string{
			"漢": "汉",
			"語": "语",
			"書": "书",
			"繁體": "繁体",
		},
		Variant: hanconv.VariantNone,
	}
}

// SetConversion records the variant.
func (m *Mock) SetConversion(variant hanconv.Variant) error {
	m.SetCalls++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Variant = variant
	return nil
}

// Convert applies the scripted replacements with greedy longest-match.
func (m *Mock) Convert(text string) string {
	m.ConvertCalls++
	if m.Variant == hanconv.VariantNone {
		return text
	}
	dict := &dictionary{table: m.Replacements}
	for key := range m.Replacements {
		if n := len([]rune(key)); n > dict.maxLen {
			dict.maxLen = n
		}
	}
	return dict.convert(text)
}

// Reset clears the recorded calls.
func (m *Mock) Reset() {
	m.Variant = hanconv.VariantNone
	m.SetCalls = 0
	m.ConvertCalls = 0
}

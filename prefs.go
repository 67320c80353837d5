package hanconv

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Preferences is the persisted form of a conversion setup. All fields
// round-trip through JSON so a front end can store the last-used
// configuration between sessions.
type Preferences struct {
	Source            InputSource     `json:"input_source"`
	Mode              Mode            `json:"conversion_mode"`
	InputLocale       Locale          `json:"input_locale"`
	OutputLocale      Locale          `json:"output_locale"`
	UseTargetPhrasing bool            `json:"use_target_phrasing"`
	Quotes            QuotationPolicy `json:"quotation_marks"`
	Orientation       Orientation     `json:"text_direction"`
	UpdatePunctuation bool            `json:"update_punctuation"`
	PunctuationOmits  string          `json:"punctuation_omits"`
	DictionaryDir     string          `json:"dictionary_dir,omitempty"`
}

// DefaultPreferences returns the settings of a fresh installation:
// convert nothing, change nothing.
func DefaultPreferences() Preferences {
	return Preferences{
		Source:           WholeBook,
		Mode:             ModeNoChange,
		InputLocale:      Mainland,
		OutputLocale:     Mainland,
		Quotes:           QuotesNoChange,
		Orientation:      OrientationNoChange,
		PunctuationOmits: DefaultPunctuationOmits,
	}
}

// LoadPreferences reads preferences from path. A missing file is not an
// error; it yields the defaults.
func LoadPreferences(path string) (Preferences, error) {
	prefs := DefaultPreferences()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return prefs, nil
		}
		return prefs, err
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return DefaultPreferences(), err
	}
	c := prefs.Criteria()
	if err := c.Validate(); err != nil {
		return DefaultPreferences(), err
	}
	return prefs, nil
}

// Save writes the preferences to path, creating parent directories as
// needed.
func (p Preferences) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Criteria converts the preferences into run criteria.
func (p Preferences) Criteria() Criteria {
	return Criteria{
		Source:            p.Source,
		Mode:              p.Mode,
		InputLocale:       p.InputLocale,
		OutputLocale:      p.OutputLocale,
		UseTargetPhrasing: p.UseTargetPhrasing,
		Quotes:            p.Quotes,
		Orientation:       p.Orientation,
		UpdatePunctuation: p.UpdatePunctuation,
	}
}

package convert

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ZaguanLabs/hanconv"
)

// ResourceLoader fetches a named dictionary resource. kind is either
// "config" or "dictionary".
type ResourceLoader func(kind, name string) ([]byte, error)

// OSLoader returns a ResourceLoader reading from an OpenCC-style data
// directory: <dir>/config/<name> for configurations and
// <dir>/dictionary/<name> for dictionary files.
func OSLoader(dir string) ResourceLoader {
	return func(kind, name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, kind, name))
	}
}

// dictConfig mirrors the OpenCC JSON configuration format. Only the
// parts the converter needs are mapped; segmentation settings are
// ignored because conversion is greedy longest-match anyway.
type dictConfig struct {
	Name            string `json:"name"`
	ConversionChain []struct {
		Dict dictRef `json:"dict"`
	} `json:"conversion_chain"`
}

type dictRef struct {
	Type  string    `json:"type"`
	File  string    `json:"file"`
	Dicts []dictRef `json:"dicts"`
}

// dictionary is one loaded mapping table. maxLen is the longest key in
// runes and bounds the greedy-match window.
type dictionary struct {
	table  map[string]string
	maxLen int
}

// convert applies greedy longest-match substitution over text.
func (d *dictionary) convert(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(runes); {
		matched := false
		max := d.maxLen
		if rest := len(runes) - i; max > rest {
			max = rest
		}
		for n := max; n > 0; n-- {
			key := string(runes[i : i+n])
			if repl, ok := d.table[key]; ok {
				b.WriteString(repl)
				i += n
				matched = true
				break
			}
		}
		if !matched {
			b.WriteRune(runes[i])
			i++
		}
	}
	return b.String()
}

// Dict converts text with OpenCC-compatible dictionaries. Tables are
// loaded lazily per variant and kept for the life of the converter, so
// switching back to an earlier variant is free.
type Dict struct {
	loader ResourceLoader

	mu     sync.RWMutex
	chains map[hanconv.Variant][]*dictionary
	active []*dictionary
}

// NewDict creates a dictionary converter backed by loader.
func NewDict(loader ResourceLoader) *Dict {
	return &Dict{
		loader: loader,
		chains: make(map[hanconv.Variant][]*dictionary),
	}
}

// SetConversion selects the active conversion table, loading it on
// first use. VariantNone deactivates conversion.
func (d *Dict) SetConversion(variant hanconv.Variant) error {
	if variant == hanconv.VariantNone {
		d.mu.Lock()
		d.active = nil
		d.mu.Unlock()
		return nil
	}
	if variant == hanconv.VariantUnsupported {
		return &hanconv.ConverterError{Message: "variant " + string(variant) + " cannot be loaded"}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if chain, ok := d.chains[variant]; ok {
		d.active = chain
		return nil
	}

	chain, err := d.loadChain(variant)
	if err != nil {
		return err
	}
	d.chains[variant] = chain
	d.active = chain
	return nil
}

// Convert applies the active conversion chain. With no active chain the
// input is returned unchanged.
func (d *Dict) Convert(text string) string {
	d.mu.RLock()
	chain := d.active
	d.mu.RUnlock()

	for _, dict := range chain {
		text = dict.convert(text)
	}
	return text
}

func (d *Dict) loadChain(variant hanconv.Variant) ([]*dictionary, error) {
	raw, err := d.loader("config", string(variant)+".json")
	if err != nil {
		return nil, &hanconv.ConverterError{Message: "load configuration " + string(variant), Cause: err}
	}
	var cfg dictConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, &hanconv.ConverterError{Message: "parse configuration " + string(variant), Cause: err}
	}
	if len(cfg.ConversionChain) == 0 {
		return nil, &hanconv.ConverterError{Message: "configuration " + string(variant) + " has no conversion chain"}
	}

	chain := make([]*dictionary, 0, len(cfg.ConversionChain))
	for _, step := range cfg.ConversionChain {
		dict := &dictionary{table: make(map[string]string)}
		if err := d.loadRef(dict, step.Dict); err != nil {
			return nil, err
		}
		chain = append(chain, dict)
	}
	return chain, nil
}

// loadRef merges the referenced dictionary file (or group of files)
// into dict.
func (d *Dict) loadRef(dict *dictionary, ref dictRef) error {
	if ref.Type == "group" {
		for _, sub := range ref.Dicts {
			if err := d.loadRef(dict, sub); err != nil {
				return err
			}
		}
		return nil
	}

	// OpenCC distributions name compiled dictionaries .ocd2; the text
	// originals ship alongside them.
	name := ref.File
	if strings.HasSuffix(name, ".ocd2") {
		name = strings.TrimSuffix(name, ".ocd2") + ".txt"
	}
	raw, err := d.loader("dictionary", name)
	if err != nil {
		return &hanconv.ConverterError{Message: "load dictionary " + name, Cause: err}
	}

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		key := fields[0]
		// Multi-valued entries list readings by frequency; the first
		// one wins, matching OpenCC.
		if _, exists := dict.table[key]; !exists {
			dict.table[key] = fields[1]
		}
		if n := len([]rune(key)); n > dict.maxLen {
			dict.maxLen = n
		}
	}
	if err := scanner.Err(); err != nil {
		return &hanconv.ConverterError{Message: "read dictionary " + name, Cause: err}
	}
	return nil
}

// Command hanconv converts Chinese-script EPUB and XHTML files.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ZaguanLabs/hanconv"
	"github.com/ZaguanLabs/hanconv/cache"
	"github.com/ZaguanLabs/hanconv/convert"
	"github.com/ZaguanLabs/hanconv/epub"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = hanconv.Version
	commit    = hanconv.GitCommit
	buildDate = hanconv.BuildDate
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("hanconv", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Flags
	mode := fs.String("mode", "none", "Conversion mode: none, trad_to_simp, simp_to_trad, trad_to_trad")
	from := fs.String("from", "mainland", "Input locale: mainland, hongkong, taiwan, japan")
	to := fs.String("to", "mainland", "Output locale: mainland, hongkong, taiwan, japan")
	phrases := fs.Bool("phrases", false, "Also adapt region-specific phrasing")
	quotes := fs.String("quotes", "none", "Quotation marks: none, western, east_asian")
	direction := fs.String("direction", "none", "Text direction: none, horizontal, vertical")
	punctuation := fs.Bool("punctuation", false, "Remap punctuation presentation forms to match the direction")
	omitPunct := fs.String("omit-punct", hanconv.DefaultPunctuationOmits, "Punctuation marks excluded from remapping")
	scope := fs.String("scope", "book", "Conversion scope: book, files, selection")
	selected := fs.String("select", "", "Comma-separated manifest IDs for -scope files/selection")
	prefsPath := fs.String("prefs", "", "Load defaults from a preferences file")
	dictDir := fs.String("dict-dir", "", "OpenCC dictionary directory (local conversion)")
	apiKey := fs.String("api-key", "", "OpenAI API key (default: OPENAI_API_KEY env)")
	model := fs.String("model", "gpt-4o-mini", "OpenAI model to use")
	cacheTTL := fs.Int("cache-ttl", 3600, "Conversion cache TTL in seconds (0 to disable)")
	redisURL := fs.String("redis", "", "Redis URL for a shared conversion cache")
	output := fs.String("output", "", "Output file (default: stdout for documents, <name>_converted.epub for books)")
	outputShort := fs.String("o", "", "Output file (short for --output)")
	dryRun := fs.Bool("dry-run", false, "Inventory convertible text without converting")
	jsonOutput := fs.Bool("json", false, "Output result as JSON")
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	verbose := fs.Bool("v", false, "Enable debug logging")
	showVersion := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", hanconv.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	// Handle -o alias for --output
	if *outputShort != "" && *output == "" {
		*output = *outputShort
	}

	criteria := hanconv.Criteria{
		Source:            hanconv.InputSource(*scope),
		Mode:              hanconv.Mode(*mode),
		InputLocale:       hanconv.Locale(*from),
		OutputLocale:      hanconv.Locale(*to),
		UseTargetPhrasing: *phrases,
		Quotes:            hanconv.QuotationPolicy(*quotes),
		Orientation:       hanconv.Orientation(*direction),
		UpdatePunctuation: *punctuation,
	}
	if *prefsPath != "" {
		prefs, err := hanconv.LoadPreferences(*prefsPath)
		if err != nil {
			return fmt.Errorf("loading preferences: %w", err)
		}
		criteria = prefs.Criteria()
		if prefs.PunctuationOmits != "" {
			*omitPunct = prefs.PunctuationOmits
		}
		if *dictDir == "" {
			*dictDir = prefs.DictionaryDir
		}
	}
	if err := criteria.Validate(); err != nil {
		fs.Usage()
		return err
	}

	log := zap.NewNop()
	if *verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer dev.Sync() //nolint:errcheck
		log = dev
	}

	// Get input
	var inputPath, inputName string
	var input []byte
	if fs.NArg() == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		input = data
		inputName = "stdin"
	} else {
		inputPath = fs.Arg(0)
		data, err := os.ReadFile(inputPath) // #nosec G304 - CLI tool reads user-specified files
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		input = data
		inputName = filepath.Base(inputPath)
	}

	isEPUB := strings.EqualFold(filepath.Ext(inputPath), ".epub")

	if *dryRun {
		if isEPUB {
			return dryRunBook(input, inputName, stdout, *jsonOutput)
		}
		return dryRunDocument(string(input), inputName, stdout, *jsonOutput)
	}

	converter, err := buildConverter(criteria.Mode, *dictDir, *apiKey, *model, *cacheTTL, *redisURL, log)
	if err != nil {
		return err
	}

	if isEPUB {
		var ids []string
		for _, id := range strings.Split(*selected, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if criteria.Source != hanconv.WholeBook && len(ids) == 0 {
			return fmt.Errorf("-scope %s requires --select", criteria.Source)
		}
		return runBook(input, inputPath, *output, criteria, ids, converter, *omitPunct, log, stdout, stderr, *jsonOutput, *quiet)
	}
	return runDocument(string(input), *output, criteria, converter, *omitPunct, stdout)
}

// buildConverter assembles the conversion backend: local dictionaries
// when a data directory is given, the OpenAI converter otherwise, with
// an optional cache in front.
func buildConverter(mode hanconv.Mode, dictDir, apiKey, model string, cacheTTL int, redisURL string, log *zap.Logger) (hanconv.Converter, error) {
	if mode == hanconv.ModeNoChange {
		return nil, nil
	}

	var converter hanconv.Converter
	if dictDir != "" {
		converter = convert.NewDict(convert.OSLoader(dictDir))
	} else {
		key := apiKey
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		if key == "" {
			return nil, fmt.Errorf("conversion requires --dict-dir, or an OpenAI key (--api-key or OPENAI_API_KEY env)")
		}
		converter = convert.NewOpenAI(convert.OpenAIConfig{
			APIKey: key,
			Model:  model,
			Logger: log,
		})
	}

	ttl := time.Duration(cacheTTL) * time.Second
	var store hanconv.ConversionCache
	switch {
	case redisURL != "":
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{URL: redisURL, TTL: ttl})
		if err != nil {
			return nil, fmt.Errorf("connecting to Redis: %w", err)
		}
		store = redisCache
	case cacheTTL > 0:
		store = cache.NewMemoryCache(ttl)
	}
	if store != nil {
		converter = convert.NewCached(converter, store)
	}
	return converter, nil
}

// runBook converts a whole EPUB.
func runBook(input []byte, inputPath, output string, criteria hanconv.Criteria, selected []string, converter hanconv.Converter, omitPunct string, log *zap.Logger, stdout, stderr io.Writer, jsonOut, quiet bool) error {
	book, err := epub.OpenReader(bytes.NewReader(input), int64(len(input)))
	if err != nil {
		return err
	}
	if len(selected) > 0 {
		book.Select(selected...)
	}

	opts := []hanconv.EngineOption{
		hanconv.WithLogger(log),
		hanconv.WithPunctuationOmissions(omitPunct),
	}
	if !quiet {
		opts = append(opts, hanconv.WithProgress(func(stage string, done, total int) {
			fmt.Fprintf(stderr, "\r%s: %d/%d", stage, done, total)
			if done == total {
				fmt.Fprintln(stderr)
			}
		}))
	}

	start := time.Now()
	engine := hanconv.NewEngine(converter, opts...)
	report, err := engine.Run(context.Background(), book, criteria)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}
	elapsed := time.Since(start)

	if output == "" {
		ext := filepath.Ext(inputPath)
		output = strings.TrimSuffix(inputPath, ext) + "_converted" + ext
	}
	if err := book.Save(output); err != nil {
		return err
	}

	if jsonOut {
		type bookOutput struct {
			Output    string          `json:"output"`
			ElapsedMS int64           `json:"elapsed_ms"`
			Report    *hanconv.Report `json:"report"`
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(bookOutput{Output: output, ElapsedMS: elapsed.Milliseconds(), Report: report})
	}

	if !quiet {
		fmt.Fprintf(stderr, "Done in %v\n", elapsed.Round(time.Millisecond))
		fmt.Fprintf(stderr, "  Variant:      %s\n", report.Variant)
		fmt.Fprintf(stderr, "  Documents:    %d changed of %d\n", report.TextsChanged, report.TextsSeen)
		fmt.Fprintf(stderr, "  Stylesheets:  %d changed\n", report.StylesheetsChanged)
		fmt.Fprintf(stderr, "  Metadata:     %v\n", report.MetadataChanged)
	}
	fmt.Fprintf(stdout, "%s\n", output)
	return nil
}

// runDocument converts a single XHTML document.
func runDocument(input, output string, criteria hanconv.Criteria, converter hanconv.Converter, omitPunct string, stdout io.Writer) error {
	variant := hanconv.Resolve(criteria.Mode, criteria.InputLocale, criteria.OutputLocale, criteria.UseTargetPhrasing)
	if variant == hanconv.VariantUnsupported {
		return &hanconv.UnsupportedConversionError{
			Mode:   criteria.Mode,
			Input:  criteria.InputLocale,
			Output: criteria.OutputLocale,
		}
	}
	if converter != nil && variant != hanconv.VariantNone {
		if err := converter.SetConversion(variant); err != nil {
			return err
		}
	}

	result, err := hanconv.NewTransformer(converter).Transform(input, criteria.Prepared(omitPunct))
	if err != nil {
		return err
	}

	var out io.Writer = stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	fmt.Fprint(out, result)
	return nil
}

// dryRunDocument inventories one document's convertible text.
func dryRunDocument(input, inputName string, stdout io.Writer, jsonOut bool) error {
	result, err := hanconv.Scan(input)
	if err != nil {
		return err
	}
	return printScan(stdout, inputName, result, jsonOut)
}

// dryRunBook inventories every text document of an EPUB.
func dryRunBook(input []byte, inputName string, stdout io.Writer, jsonOut bool) error {
	book, err := epub.OpenReader(bytes.NewReader(input), int64(len(input)))
	if err != nil {
		return err
	}

	total := &hanconv.ScanResult{}
	for _, res := range book.Texts() {
		content, err := book.ReadFile(res.ID)
		if err != nil {
			return err
		}
		result, err := hanconv.Scan(content)
		if err != nil {
			return err
		}
		total.Runs = append(total.Runs, result.Runs...)
		total.HanRuns += result.HanRuns
		total.HanChars += result.HanChars
	}
	return printScan(stdout, inputName, total, jsonOut)
}

func printScan(stdout io.Writer, inputName string, result *hanconv.ScanResult, jsonOut bool) error {
	if jsonOut {
		type scanOutput struct {
			InputFile string `json:"input_file"`
			TextRuns  int    `json:"text_runs"`
			HanRuns   int    `json:"han_runs"`
			HanChars  int    `json:"han_chars"`
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(scanOutput{
			InputFile: inputName,
			TextRuns:  len(result.Runs),
			HanRuns:   result.HanRuns,
			HanChars:  result.HanChars,
		})
	}

	fmt.Fprintf(stdout, "Dry run: %s\n", inputName)
	fmt.Fprintf(stdout, "Found %d text runs, %d containing Chinese (%d characters total)\n",
		len(result.Runs), result.HanRuns, result.HanChars)
	for i, run := range result.Runs {
		if !run.Han {
			continue
		}
		text := run.Text
		if r := []rune(text); len(r) > 60 {
			text = string(r[:57]) + "..."
		}
		fmt.Fprintf(stdout, "%3d. %q\n", i+1, strings.TrimSpace(text))
	}
	return nil
}

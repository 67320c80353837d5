package hanconv

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// TextRun is one text node found by Scan, located by the path of element
// names from the document root.
type TextRun struct {
	Path string
	Text string
	Han  bool
}

// ScanResult summarizes the convertible text of one document.
type ScanResult struct {
	Runs     []TextRun
	HanRuns  int
	HanChars int
}

// ContainsHan reports whether any character of text is a Han ideograph.
func ContainsHan(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.Han) {
			return true
		}
	}
	return false
}

func countHan(text string) int {
	n := 0
	for _, r := range text {
		if unicode.In(r, unicode.Han) {
			n++
		}
	}
	return n
}

// Scan parses a document and inventories its text nodes without
// rewriting anything. It backs the dry-run mode: callers can report how
// much convertible text a book holds before committing to a conversion.
func Scan(doc string) (*ScanResult, error) {
	root, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, &TransformError{Message: "parse document", Cause: err}
	}

	result := &ScanResult{}
	var walk func(sel *goquery.Selection, path string)
	walk = func(sel *goquery.Selection, path string) {
		sel.Contents().Each(func(_ int, s *goquery.Selection) {
			if goquery.NodeName(s) == "#text" {
				text := s.Text()
				if strings.TrimSpace(text) == "" {
					return
				}
				run := TextRun{Path: path, Text: text, Han: ContainsHan(text)}
				result.Runs = append(result.Runs, run)
				if run.Han {
					result.HanRuns++
					result.HanChars += countHan(text)
				}
				return
			}
			walk(s, path+"/"+goquery.NodeName(s))
		})
	}
	walk(root.Selection, "")
	return result, nil
}

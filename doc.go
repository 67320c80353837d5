// Package hanconv selectively rewrites Chinese-script text embedded in
// EPUB/XHTML documents, converting between traditional and simplified
// character sets while leaving markup untouched byte for byte.
//
// Besides the character conversion itself (delegated to a pluggable
// Converter backend), hanconv remaps locale-specific quotation marks,
// swaps punctuation between horizontal and vertical presentation forms,
// and rewrites stylesheets and the spine reading direction so a book can
// flow vertically or horizontally.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/hanconv"
//	    "github.com/ZaguanLabs/hanconv/convert"
//	    "github.com/ZaguanLabs/hanconv/epub"
//	)
//
//	func main() {
//	    book, err := epub.Open("book.epub")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    conv := convert.NewDict(convert.OSLoader("./dicts"))
//
//	    engine := hanconv.NewEngine(conv)
//	    report, err := engine.Run(context.Background(), book, hanconv.Criteria{
//	        Source:       hanconv.WholeBook,
//	        Mode:         hanconv.ModeSimpToTrad,
//	        InputLocale:  hanconv.Mainland,
//	        OutputLocale: hanconv.Taiwan,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if report.Dirty() {
//	        book.Save("book-tw.epub")
//	    }
//	}
package hanconv

// Package epub reads and writes EPUB containers for conversion. A Book
// keeps every archive member byte-verbatim except the files explicitly
// rewritten through it, so a conversion run never reflows untouched
// resources.
package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/beevik/etree"

	"github.com/ZaguanLabs/hanconv"
)

const containerPath = "META-INF/container.xml"

// textMediaTypes are the manifest media types treated as text documents.
var textMediaTypes = map[string]bool{
	"application/xhtml+xml": true,
	"text/html":             true,
}

// Book is an EPUB opened for conversion. It implements hanconv.Container.
type Book struct {
	files    map[string][]byte // archive path -> content
	order    []string          // archive member order
	opfPath  string
	opf      *etree.Document
	selected map[string]bool
}

var _ hanconv.Container = (*Book)(nil)

// Open reads the EPUB at pathname.
func Open(pathname string) (*Book, error) {
	zr, err := zip.OpenReader(pathname)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", pathname, err)
	}
	defer zr.Close()
	return load(&zr.Reader)
}

// OpenReader reads an EPUB from r.
func OpenReader(r io.ReaderAt, size int64) (*Book, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return load(zr)
}

func load(zr *zip.Reader) (*Book, error) {
	book := &Book{
		files:    make(map[string][]byte),
		selected: make(map[string]bool),
	}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open member %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read member %s: %w", f.Name, err)
		}
		book.files[f.Name] = data
		book.order = append(book.order, f.Name)
	}

	if err := book.loadPackage(); err != nil {
		return nil, err
	}
	return book, nil
}

// loadPackage locates the OPF through META-INF/container.xml and parses it.
func (b *Book) loadPackage() error {
	raw, ok := b.files[containerPath]
	if !ok {
		return fmt.Errorf("not an EPUB: missing %s", containerPath)
	}
	container := etree.NewDocument()
	if err := container.ReadFromBytes(raw); err != nil {
		return fmt.Errorf("parse %s: %w", containerPath, err)
	}
	rootfile := container.FindElement("//rootfile[@full-path]")
	if rootfile == nil {
		return fmt.Errorf("%s declares no rootfile", containerPath)
	}
	b.opfPath = rootfile.SelectAttrValue("full-path", "")

	raw, ok = b.files[b.opfPath]
	if !ok {
		return fmt.Errorf("missing package document %s", b.opfPath)
	}
	b.opf = etree.NewDocument()
	if err := b.opf.ReadFromBytes(raw); err != nil {
		return fmt.Errorf("parse %s: %w", b.opfPath, err)
	}
	return nil
}

// manifestItem returns the manifest item with the given id.
func (b *Book) manifestItem(id string) *etree.Element {
	return b.opf.FindElement("//manifest/item[@id='" + id + "']")
}

// resolve turns a manifest href into an archive path.
func (b *Book) resolve(href string) string {
	return path.Join(path.Dir(b.opfPath), href)
}

func (b *Book) resource(item *etree.Element) hanconv.Resource {
	return hanconv.Resource{
		ID:   item.SelectAttrValue("id", ""),
		Href: item.SelectAttrValue("href", ""),
	}
}

// Texts returns the text documents in spine order.
func (b *Book) Texts() []hanconv.Resource {
	var texts []hanconv.Resource
	for _, ref := range b.opf.FindElements("//spine/itemref") {
		item := b.manifestItem(ref.SelectAttrValue("idref", ""))
		if item == nil {
			continue
		}
		if textMediaTypes[item.SelectAttrValue("media-type", "")] {
			texts = append(texts, b.resource(item))
		}
	}
	return texts
}

// Stylesheets returns the CSS resources in manifest order.
func (b *Book) Stylesheets() []hanconv.Resource {
	var sheets []hanconv.Resource
	for _, item := range b.opf.FindElements("//manifest/item") {
		if item.SelectAttrValue("media-type", "") == "text/css" {
			sheets = append(sheets, b.resource(item))
		}
	}
	return sheets
}

// Select marks the given manifest IDs as the working set for partial
// conversions. Unknown IDs are ignored.
func (b *Book) Select(ids ...string) {
	b.selected = make(map[string]bool, len(ids))
	for _, id := range ids {
		b.selected[id] = true
	}
}

// Selected returns the selected text documents in spine order.
func (b *Book) Selected() []hanconv.Resource {
	var texts []hanconv.Resource
	for _, res := range b.Texts() {
		if b.selected[res.ID] {
			texts = append(texts, res)
		}
	}
	return texts
}

// ReadFile returns the content of the resource with the given manifest ID.
func (b *Book) ReadFile(id string) (string, error) {
	item := b.manifestItem(id)
	if item == nil {
		return "", fmt.Errorf("no manifest item %q", id)
	}
	data, ok := b.files[b.resolve(item.SelectAttrValue("href", ""))]
	if !ok {
		return "", fmt.Errorf("manifest item %q points at a missing file", id)
	}
	return string(data), nil
}

// WriteFile replaces the content of the resource with the given manifest ID.
func (b *Book) WriteFile(id string, content string) error {
	item := b.manifestItem(id)
	if item == nil {
		return fmt.Errorf("no manifest item %q", id)
	}
	name := b.resolve(item.SelectAttrValue("href", ""))
	if _, ok := b.files[name]; !ok {
		return fmt.Errorf("manifest item %q points at a missing file", id)
	}
	b.files[name] = []byte(content)
	return nil
}

// AddStylesheet registers a new CSS file at href (relative to the
// package document) and returns its resource.
func (b *Book) AddStylesheet(href, content string) (hanconv.Resource, error) {
	manifest := b.opf.FindElement("//manifest")
	if manifest == nil {
		return hanconv.Resource{}, fmt.Errorf("package document has no manifest")
	}

	id := "css-flow"
	for i := 0; b.manifestItem(id) != nil; i++ {
		id = fmt.Sprintf("css-flow-%d", i)
	}

	item := manifest.CreateElement("item")
	item.CreateAttr("id", id)
	item.CreateAttr("href", href)
	item.CreateAttr("media-type", "text/css")

	name := b.resolve(href)
	if _, ok := b.files[name]; !ok {
		b.order = append(b.order, name)
	}
	b.files[name] = []byte(content)
	return hanconv.Resource{ID: id, Href: href}, nil
}

// PageProgression returns the spine's page-progression-direction, or ""
// when unset.
func (b *Book) PageProgression() string {
	if spine := b.opf.FindElement("//spine"); spine != nil {
		return spine.SelectAttrValue("page-progression-direction", "")
	}
	return ""
}

// SetPageProgression sets the spine's page-progression-direction.
func (b *Book) SetPageProgression(dir string) {
	if spine := b.opf.FindElement("//spine"); spine != nil {
		spine.CreateAttr("page-progression-direction", dir)
	}
}

// MetadataXML returns the package metadata element as an XML fragment.
func (b *Book) MetadataXML() (string, error) {
	metadata := b.opf.FindElement("//metadata")
	if metadata == nil {
		return "", fmt.Errorf("package document has no metadata")
	}
	doc := etree.NewDocument()
	doc.SetRoot(metadata.Copy())
	return doc.WriteToString()
}

// SetMetadataXML replaces the package metadata element.
func (b *Book) SetMetadataXML(xml string) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		return fmt.Errorf("parse metadata: %w", err)
	}
	replacement := doc.Root()
	if replacement == nil {
		return fmt.Errorf("metadata fragment is empty")
	}

	metadata := b.opf.FindElement("//metadata")
	if metadata == nil {
		return fmt.Errorf("package document has no metadata")
	}
	parent := metadata.Parent()
	index := metadata.Index()
	parent.RemoveChildAt(index)
	parent.InsertChildAt(index, replacement.Copy())
	return nil
}

// TOCID returns the manifest ID of the navigation document (EPUB 3) or
// the NCX referenced by the spine (EPUB 2), or "" when neither exists.
func (b *Book) TOCID() string {
	for _, item := range b.opf.FindElements("//manifest/item") {
		for _, p := range strings.Fields(item.SelectAttrValue("properties", "")) {
			if p == "nav" {
				return item.SelectAttrValue("id", "")
			}
		}
	}
	if spine := b.opf.FindElement("//spine"); spine != nil {
		if toc := spine.SelectAttrValue("toc", ""); toc != "" && b.manifestItem(toc) != nil {
			return toc
		}
	}
	return ""
}

// Save writes the book to pathname. The mimetype member is stored first
// and uncompressed, as the container format requires.
func (b *Book) Save(pathname string) error {
	f, err := os.Create(pathname)
	if err != nil {
		return fmt.Errorf("create %s: %w", pathname, err)
	}
	if err := b.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write writes the book to w as an EPUB archive.
func (b *Book) Write(w io.Writer) error {
	// The package document may have been edited through the etree form.
	opf, err := b.opf.WriteToBytes()
	if err != nil {
		return fmt.Errorf("serialize package document: %w", err)
	}
	b.files[b.opfPath] = opf

	zw := zip.NewWriter(w)

	if mimetype, ok := b.files["mimetype"]; ok {
		mw, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
		if err != nil {
			return fmt.Errorf("write mimetype: %w", err)
		}
		if _, err := mw.Write(mimetype); err != nil {
			return fmt.Errorf("write mimetype: %w", err)
		}
	}

	for _, name := range b.order {
		if name == "mimetype" {
			continue
		}
		fw, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("write member %s: %w", name, err)
		}
		if _, err := fw.Write(b.files[name]); err != nil {
			return fmt.Errorf("write member %s: %w", name, err)
		}
	}
	return zw.Close()
}

// Bytes serializes the book to an in-memory archive.
func (b *Book) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

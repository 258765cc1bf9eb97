// Package markdown splits a Markdown file into frontmatter, a preamble and
// "## "-delimited sections, and reassembles it byte-for-byte.
package markdown

import (
	"bytes"
	"strings"
)

const (
	delim        = "---"
	headerPrefix = "## "
)

// Section is one "## " heading and the raw text up to the next heading.
type Section struct {
	Header string
	Body   string
}

// Document is a parsed Markdown file.
type Document struct {
	Frontmatter *Frontmatter
	Preamble    string
	Sections    []Section
}

// New returns an empty document.
func New() *Document {
	return &Document{Frontmatter: NewFrontmatter()}
}

// Parse splits raw Markdown into frontmatter, preamble and sections.
// It fails only when a frontmatter block is present but is not valid YAML.
func Parse(data []byte) (*Document, error) {
	block, body, ok := splitFrontmatter(data)
	doc := New()
	if ok {
		fm, err := parseFrontmatter(block)
		if err != nil {
			return nil, err
		}
		doc.Frontmatter = fm
	}

	var cur *Section
	var pre strings.Builder
	for _, line := range strings.SplitAfter(body, "\n") {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, headerPrefix) {
			doc.Sections = append(doc.Sections, Section{
				Header: strings.TrimSpace(line[len(headerPrefix):]),
			})
			cur = &doc.Sections[len(doc.Sections)-1]
			continue
		}
		if cur == nil {
			pre.WriteString(line)
		} else {
			cur.Body += line
		}
	}
	doc.Preamble = pre.String()
	return doc, nil
}

// splitFrontmatter separates the YAML block between leading --- delimiters
// from the rest of the file. ok is false when there is no complete block.
func splitFrontmatter(data []byte) (block []byte, body string, ok bool) {
	if !bytes.HasPrefix(data, []byte(delim+"\n")) && !bytes.HasPrefix(data, []byte(delim+"\r\n")) {
		return nil, string(data), false
	}
	rest := data[bytes.IndexByte(data, '\n')+1:]

	// Empty block: closing delimiter right away.
	if bytes.HasPrefix(rest, []byte(delim)) {
		return nil, afterDelimLine(rest), true
	}

	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), false
	}
	return rest[:idx+1], afterDelimLine(rest[idx+1:]), true
}

// afterDelimLine drops the delimiter line at the start of b.
func afterDelimLine(b []byte) string {
	nl := bytes.IndexByte(b, '\n')
	if nl < 0 {
		return ""
	}
	return string(b[nl+1:])
}

// Section returns the index of the first section whose header is one of names, or -1.
func (d *Document) Section(names ...string) int {
	for i, s := range d.Sections {
		for _, n := range names {
			if s.Header == n {
				return i
			}
		}
	}
	return -1
}

// Insert places s at index i, shifting later sections.
func (d *Document) Insert(i int, s Section) {
	if i < 0 || i > len(d.Sections) {
		i = len(d.Sections)
	}
	d.Sections = append(d.Sections, Section{})
	copy(d.Sections[i+1:], d.Sections[i:])
	d.Sections[i] = s
}

// Bytes serializes the document: frontmatter block, preamble, then each
// section header line followed by its raw body.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if d.Frontmatter != nil && d.Frontmatter.Len() > 0 {
		yml, err := d.Frontmatter.marshal()
		if err != nil {
			return nil, err
		}
		buf.WriteString(delim + "\n")
		buf.Write(yml)
		buf.WriteString(delim + "\n")
	}
	buf.WriteString(d.Preamble)
	for _, s := range d.Sections {
		buf.WriteString(headerPrefix + s.Header + "\n")
		buf.WriteString(s.Body)
	}
	return buf.Bytes(), nil
}

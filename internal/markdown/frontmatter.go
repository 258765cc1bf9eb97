package markdown

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Frontmatter is an ordered YAML key/value map. Entries keep the node they
// were parsed from, so keys nobody sets are written back with their original
// style and comments.
type Frontmatter struct {
	keys    []*yaml.Node
	values  []*yaml.Node
	docHead string
	docFoot string
}

// NewFrontmatter returns an empty frontmatter map.
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{}
}

// Len returns the number of keys.
func (f *Frontmatter) Len() int { return len(f.keys) }

func (f *Frontmatter) index(key string) int {
	for i, k := range f.keys {
		if k.Value == key {
			return i
		}
	}
	return -1
}

// order returns the keys in document order.
func (f *Frontmatter) order() []string {
	out := make([]string, len(f.keys))
	for i, k := range f.keys {
		out[i] = k.Value
	}
	return out
}

// Has reports whether key is present (even with a null value).
func (f *Frontmatter) Has(key string) bool {
	return f.index(key) >= 0
}

// Get decodes the value for key and reports whether it was present. A value
// that does not decode comes back as nil.
func (f *Frontmatter) Get(key string) (any, bool) {
	i := f.index(key)
	if i < 0 {
		return nil, false
	}
	var v any
	if err := f.values[i].Decode(&v); err != nil {
		return nil, true
	}
	return v, true
}

// Set stores value under key, appending new keys at the end. An existing
// key keeps its position and comments.
func (f *Frontmatter) Set(key string, value any) {
	val := &yaml.Node{}
	if err := val.Encode(value); err != nil {
		val = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprint(value)}
	}
	i := f.index(key)
	if i < 0 {
		f.keys = append(f.keys, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key})
		f.values = append(f.values, val)
		return
	}
	old := f.values[i]
	if old.Kind == yaml.ScalarNode && val.Kind == yaml.ScalarNode &&
		old.ShortTag() == val.ShortTag() && old.Value == val.Value {
		return
	}
	val.LineComment = old.LineComment
	val.FootComment = old.FootComment
	f.values[i] = val
}

// Delete removes key.
func (f *Frontmatter) Delete(key string) {
	i := f.index(key)
	if i < 0 {
		return
	}
	f.keys = append(f.keys[:i], f.keys[i+1:]...)
	f.values = append(f.values[:i], f.values[i+1:]...)
}

// String returns the scalar text for key, or "" if it is absent, null or
// not a scalar.
func (f *Frontmatter) String(key string) string {
	i := f.index(key)
	if i < 0 {
		return ""
	}
	v := f.values[i]
	if v.Kind == yaml.AliasNode && v.Alias != nil {
		v = v.Alias
	}
	if v.Kind != yaml.ScalarNode || v.ShortTag() == "!!null" {
		return ""
	}
	return v.Value
}

func parseFrontmatter(block []byte) (*Frontmatter, error) {
	fm := NewFrontmatter()
	if len(bytes.TrimSpace(block)) == 0 {
		return fm, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return nil, fmt.Errorf("markdown: frontmatter: %w", err)
	}
	if len(doc.Content) == 0 {
		return fm, nil
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("markdown: frontmatter is not a key/value map")
	}
	fm.docHead = joinComments(doc.HeadComment, mapping.HeadComment)
	fm.docFoot = joinComments(mapping.FootComment, doc.FootComment)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		k, v := mapping.Content[i], mapping.Content[i+1]
		if j := fm.index(k.Value); j >= 0 {
			fm.values[j] = v
			continue
		}
		fm.keys = append(fm.keys, k)
		fm.values = append(fm.values, v)
	}
	return fm, nil
}

func joinComments(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "\n" + b
}

func (f *Frontmatter) marshal() ([]byte, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := range f.keys {
		mapping.Content = append(mapping.Content, f.keys[i], f.values[i])
	}
	doc := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: f.docHead,
		FootComment: f.docFoot,
		Content:     []*yaml.Node{mapping},
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("markdown: encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

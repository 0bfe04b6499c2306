package extract

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// FieldText is one flattened text field from an article payload
type FieldText struct {
	Path string
	Text string
}

// Flatten walks an arbitrary nested article mapping and returns its text
// fields as (field-path, text) pairs in deterministic key order. Values that
// look like HTML fragments are reduced to their visible text.
func Flatten(article map[string]any) []FieldText {
	var fields []FieldText
	flattenValue("", article, &fields)
	return fields
}

// FlattenText joins all flattened fields into one document, field paths as
// section markers.
func FlattenText(article map[string]any) string {
	var b strings.Builder
	for _, field := range Flatten(article) {
		fmt.Fprintf(&b, "%s: %s\n", field.Path, field.Text)
	}
	return b.String()
}

// FieldValue returns the flattened text of a single field path, if present
func FieldValue(article map[string]any, path string) (string, bool) {
	for _, field := range Flatten(article) {
		if field.Path == path {
			return field.Text, true
		}
	}
	return "", false
}

func flattenValue(path string, value any, out *[]FieldText) {
	switch v := value.(type) {
	case string:
		text := strings.TrimSpace(v)
		if text == "" {
			return
		}
		if strings.Contains(text, "<") && strings.Contains(text, ">") {
			text = visibleText(text)
		}
		*out = append(*out, FieldText{Path: path, Text: text})

	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenValue(joinPath(path, k), v[k], out)
		}

	case []any:
		for i, item := range v {
			flattenValue(fmt.Sprintf("%s[%d]", path, i), item, out)
		}
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// visibleText strips markup, skipping script/style/noscript/iframe subtrees
func visibleText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(buf.String())
}

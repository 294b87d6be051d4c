// Package frontmatter reads and writes record files: a YAML header between
// --- delimiter lines followed by free-form markdown body text.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/moveng/internal/model"
)

const delim = "---"

// Document is a parsed record file.
type Document struct {
	Path   string
	Header map[string]any
	Body   string
}

// Parse splits text into its YAML header and body.
//
// The first line must be a --- delimiter and a later line must close the
// block. CRLF line endings and a leading byte order mark are accepted. The
// header must decode to a mapping; an empty header yields an empty map.
// Failures are returned as *model.ParseError naming path.
func Parse(path, text string) (*Document, error) {
	header, body, err := split(text)
	if err != nil {
		return nil, &model.ParseError{Path: path, Message: err.Error()}
	}

	fields, err := decodeHeader(header)
	if err != nil {
		perr := &model.ParseError{Path: path, Message: "invalid YAML header", Err: err}
		if le, ok := err.(*headerKindError); ok {
			perr.Message = le.Error()
			perr.Err = nil
			perr.Line = le.line + 1 // header starts on the line after the opening delimiter
		}
		return nil, perr
	}

	return &Document{Path: path, Header: fields, Body: body}, nil
}

// split returns the raw header and the body. Line endings are normalised
// to \n in both.
func split(text string) (header, body string, err error) {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	first, rest, found := strings.Cut(text, "\n")
	if strings.TrimRight(first, " \t") != delim {
		return "", "", fmt.Errorf("missing or invalid YAML front matter: file must start with %s", delim)
	}
	if !found {
		return "", "", fmt.Errorf("missing closing %s delimiter", delim)
	}

	var hdr []string
	for {
		line, tail, more := strings.Cut(rest, "\n")
		if strings.TrimRight(line, " \t") == delim {
			return strings.Join(hdr, "\n"), tail, nil
		}
		if !more {
			return "", "", fmt.Errorf("missing closing %s delimiter", delim)
		}
		hdr = append(hdr, line)
		rest = tail
	}
}

// headerKindError reports a header that decodes to something other than a mapping.
type headerKindError struct {
	kind string
	line int
}

func (e *headerKindError) Error() string {
	return fmt.Sprintf("front matter must define a YAML object, got %s", e.kind)
}

func decodeHeader(header string) (map[string]any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(header), &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return map[string]any{}, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return map[string]any{}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, &headerKindError{kind: nodeKindName(root), line: root.Line}
	}

	fields := make(map[string]any, len(root.Content)/2)
	if err := root.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func nodeKindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "a list"
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unsupported node"
	}
}

// Field is one ordered header entry for Write.
type Field struct {
	Key   string
	Value any
}

// Write renders a record file: header fields in the given order, then body.
// Nil values are written as YAML null.
func Write(fields []Field, body string) ([]byte, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, f := range fields {
		value := &yaml.Node{}
		if err := value.Encode(f.Value); err != nil {
			return nil, fmt.Errorf("frontmatter: encode %s: %w", f.Key, err)
		}
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key},
			value,
		)
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	if len(fields) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(mapping); err != nil {
			return nil, fmt.Errorf("frontmatter: marshal: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("frontmatter: marshal: %w", err)
		}
	}
	buf.WriteString(delim + "\n")
	buf.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

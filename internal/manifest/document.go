// Package manifest reads, merges and writes JSON package manifests while
// preserving the order of every field it does not own.
//
// Input may be JSON with comments and trailing commas, as tsconfig files
// are. It is standardized with hujson, decoded token by token into a
// yaml.v3 node tree that keeps mapping order, and encoded back as two-space
// indented JSON. Comments are not carried into the output.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// ParseError reports a manifest that cannot be read as a JSON object.
type ParseError struct {
	// Path identifies the manifest in diagnostics.
	Path string
	// Err is the underlying decode error.
	Err error
}

func (e *ParseError) Error() string {
	if e == nil {
		return "parse manifest"
	}
	if e.Path == "" {
		return fmt.Sprintf("parse manifest: %v", e.Err)
	}
	return fmt.Sprintf("parse manifest %q: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsParseError reports whether err is a manifest parse failure.
func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// Document is an order-preserving JSON object.
type Document struct {
	root *yaml.Node
}

// Parse decodes data as a JSON object. path is only used in errors.
func Parse(path string, data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Path: path, Err: errors.New("document is empty")}
	}
	std, err := hujson.Standardize(append([]byte(nil), data...))
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	dec := json.NewDecoder(bytes.NewReader(std))
	dec.UseNumber()
	root, err := decodeValue(dec)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Path: path, Err: errors.New("unexpected data after the root object")}
	}
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Path: path, Err: errors.New("root is not a JSON object")}
	}
	return &Document{root: root}, nil
}

func decodeValue(dec *json.Decoder) (*yaml.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Style: yaml.FlowStyle}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key %v is not a string", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				node.Content = append(node.Content, stringNode(key), val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return node, nil
		case '[':
			node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				node.Content = append(node.Content, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return node, nil
		default:
			return nil, fmt.Errorf("unexpected %q", rune(v))
		}
	case string:
		return stringNode(v), nil
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(v.String(), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.String()}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(v)}, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

// Keys returns the top-level field names in document order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.root.Content)/2)
	for i := 0; i+1 < len(d.root.Content); i += 2 {
		keys = append(keys, d.root.Content[i].Value)
	}
	return keys
}

// String returns a top-level string field.
func (d *Document) String(key string) (string, bool) {
	val := lookup(d.root, key)
	if val == nil || val.Kind != yaml.ScalarNode || val.ShortTag() != "!!str" {
		return "", false
	}
	return val.Value, true
}

// StringMap returns a top-level object of string values, or false when the
// field is absent or not such an object.
func (d *Document) StringMap(key string) (map[string]string, bool) {
	val := lookup(d.root, key)
	if val == nil || val.Kind != yaml.MappingNode {
		return nil, false
	}
	out := make(map[string]string, len(val.Content)/2)
	for i := 0; i+1 < len(val.Content); i += 2 {
		v := val.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, false
		}
		out[val.Content[i].Value] = v.Value
	}
	return out, true
}

// MapKeys returns the keys of a top-level object in document order.
func (d *Document) MapKeys(key string) []string {
	val := lookup(d.root, key)
	if val == nil || val.Kind != yaml.MappingNode {
		return nil
	}
	keys := make([]string, 0, len(val.Content)/2)
	for i := 0; i+1 < len(val.Content); i += 2 {
		keys = append(keys, val.Content[i].Value)
	}
	return keys
}

// Strings returns a top-level array of strings.
func (d *Document) Strings(key string) ([]string, bool) {
	val := lookup(d.root, key)
	if val == nil || val.Kind != yaml.SequenceNode {
		return nil, false
	}
	out := make([]string, 0, len(val.Content))
	for _, item := range val.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, false
		}
		out = append(out, item.Value)
	}
	return out, true
}

// AppendString appends value to the top-level array key, creating the array
// when absent. It reports whether the document changed; a value already
// present is left alone.
func (d *Document) AppendString(key, value string) (bool, error) {
	val := lookup(d.root, key)
	if val == nil {
		val = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		d.root.Content = append(d.root.Content, stringNode(key), val)
	}
	if val.Kind != yaml.SequenceNode {
		return false, fmt.Errorf("manifest field %q is not an array", key)
	}
	for _, item := range val.Content {
		if item.Kind == yaml.ScalarNode && item.Value == value {
			return false, nil
		}
	}
	val.Content = append(val.Content, stringNode(value))
	return true, nil
}

// Encode writes the document as two-space indented JSON with a trailing newline.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeNode(&buf, d.root, 0); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func lookup(obj *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(obj.Content); i += 2 {
		if obj.Content[i].Value == key {
			return obj.Content[i+1]
		}
	}
	return nil
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: value}
}

func writeNode(buf *bytes.Buffer, n *yaml.Node, depth int) error {
	switch n.Kind {
	case yaml.MappingNode:
		if len(n.Content) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteString("{\n")
		for i := 0; i+1 < len(n.Content); i += 2 {
			writeIndent(buf, depth+1)
			buf.WriteString(quote(n.Content[i].Value))
			buf.WriteString(": ")
			if err := writeNode(buf, n.Content[i+1], depth+1); err != nil {
				return err
			}
			if i+2 < len(n.Content) {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte('}')
	case yaml.SequenceNode:
		if len(n.Content) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteString("[\n")
		for i, item := range n.Content {
			writeIndent(buf, depth+1)
			if err := writeNode(buf, item, depth+1); err != nil {
				return err
			}
			if i+1 < len(n.Content) {
				buf.WriteByte(',')
			}
			buf.WriteByte('\n')
		}
		writeIndent(buf, depth)
		buf.WriteByte(']')
	case yaml.ScalarNode:
		writeScalar(buf, n)
	case yaml.AliasNode:
		if n.Alias == nil {
			return errors.New("manifest contains a dangling alias")
		}
		return writeNode(buf, n.Alias, depth)
	default:
		return fmt.Errorf("unsupported manifest node kind %d", n.Kind)
	}
	return nil
}

func writeScalar(buf *bytes.Buffer, n *yaml.Node) {
	switch n.ShortTag() {
	case "!!int", "!!float":
		if json.Valid([]byte(n.Value)) {
			buf.WriteString(n.Value)
			return
		}
	case "!!bool":
		buf.WriteString(strings.ToLower(n.Value))
		return
	case "!!null":
		buf.WriteString("null")
		return
	}
	buf.WriteString(quote(n.Value))
}

// quote renders s as a JSON string without HTML escaping, the way package
// managers write manifests.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func writeIndent(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("  ")
	}
}

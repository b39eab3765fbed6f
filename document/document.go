// Package document implements a structure-preserving model for JSON
// translation source files.
//
// A parsed document is a tree of Nodes: string, number, boolean, and null
// leaves, sequences, and mappings. Mapping key order from the source file
// is preserved so that generated output is deterministic and diffs cleanly
// against the source. Only string leaves are translatable; every other
// node passes through generation unchanged.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Node model
// ---------------------------------------------------------------------------

// Kind identifies the type of a document node.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindNull
	KindSequence
	KindMapping
)

// Node is one value in the document tree. Exactly one of the value fields
// is meaningful, selected by Kind.
type Node struct {
	Kind Kind

	// Str holds the value for KindString.
	Str string
	// Num holds the value for KindNumber. Kept as json.Number so that
	// non-string leaves round-trip byte-identically (no float drift).
	Num json.Number
	// Bool holds the value for KindBool.
	Bool bool

	// Seq holds the elements for KindSequence, in index order.
	Seq []*Node

	// Keys holds the mapping keys for KindMapping in insertion order;
	// Map holds the corresponding child nodes.
	Keys []string
	Map  map[string]*Node
}

// ---------------------------------------------------------------------------
// Parsing (order-preserving JSON decode)
// ---------------------------------------------------------------------------

// ParseFile reads and parses a JSON document file.
func ParseFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	n, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return n, nil
}

// Parse decodes JSON data into a Node tree, preserving mapping key order.
func Parse(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	n, err := parseValue(dec)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing JSON: empty document")
		}
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	// Anything after the first value is malformed.
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("parsing JSON: unexpected data after document")
	}

	return n, nil
}

func parseValue(dec *json.Decoder) (*Node, error) {
	t, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := t.(type) {
	case json.Delim:
		switch v {
		case '{':
			return parseMapping(dec)
		case '[':
			return parseSequence(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", v.String())
	case string:
		return &Node{Kind: KindString, Str: v}, nil
	case json.Number:
		return &Node{Kind: KindNumber, Num: v}, nil
	case bool:
		return &Node{Kind: KindBool, Bool: v}, nil
	case nil:
		return &Node{Kind: KindNull}, nil
	}

	return nil, fmt.Errorf("unexpected token %v", t)
}

func parseMapping(dec *json.Decoder) (*Node, error) {
	n := &Node{Kind: KindMapping, Map: make(map[string]*Node)}

	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %T", kt)
		}

		child, err := parseValue(dec)
		if err != nil {
			return nil, err
		}

		// Duplicate keys: last value wins, first position kept.
		if _, exists := n.Map[key]; !exists {
			n.Keys = append(n.Keys, key)
		}
		n.Map[key] = child
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return n, nil
}

func parseSequence(dec *json.Decoder) (*Node, error) {
	n := &Node{Kind: KindSequence}

	for dec.More() {
		child, err := parseValue(dec)
		if err != nil {
			return nil, err
		}
		n.Seq = append(n.Seq, child)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	return n, nil
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

// Step is one component of a Path: a mapping key or a sequence index.
type Step struct {
	Key   string
	Index int
	IsKey bool
}

// Path addresses a node in the document tree.
type Path []Step

// String renders the path in dotted form: "app.messages[0].title".
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if s.IsKey {
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s.Key)
		} else {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
		}
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Leaf extraction
// ---------------------------------------------------------------------------

// Leaf is a translatable string value and its location in the tree.
type Leaf struct {
	Path  Path
	Value string
}

// Extract walks the tree depth-first (mapping keys in insertion order,
// sequence elements in index order) and returns every translatable string
// leaf with its path.
//
// Empty and whitespace-only strings are not extracted: they carry no
// translatable content and are left in place verbatim by Rebuild.
func Extract(root *Node) []Leaf {
	var leaves []Leaf
	extract(root, nil, &leaves)
	return leaves
}

func extract(n *Node, p Path, out *[]Leaf) {
	switch n.Kind {
	case KindMapping:
		for _, k := range n.Keys {
			extract(n.Map[k], append(p, Step{Key: k, IsKey: true}), out)
		}
	case KindSequence:
		for i, child := range n.Seq {
			extract(child, append(p, Step{Index: i}), out)
		}
	case KindString:
		if strings.TrimSpace(n.Str) == "" {
			return
		}
		// Copy the path: the backing array is reused during the walk.
		*out = append(*out, Leaf{Path: append(Path(nil), p...), Value: n.Str})
	}
}

// ---------------------------------------------------------------------------
// Structure rebuilding
// ---------------------------------------------------------------------------

// Rebuild returns a deep copy of orig with string leaves replaced by the
// values in translations, keyed by Path.String(). Paths absent from
// translations keep the original value. The original tree is not mutated.
//
// Keys containing '.' or '[' can render the same path string as a nested
// chain of keys ("a.b" vs a→b); such leaves share one map slot and receive
// the same replacement.
func Rebuild(orig *Node, translations map[string]string) *Node {
	return rebuild(orig, nil, translations)
}

func rebuild(n *Node, p Path, translations map[string]string) *Node {
	switch n.Kind {
	case KindMapping:
		out := &Node{
			Kind: KindMapping,
			Keys: append([]string(nil), n.Keys...),
			Map:  make(map[string]*Node, len(n.Map)),
		}
		for _, k := range n.Keys {
			out.Map[k] = rebuild(n.Map[k], append(p, Step{Key: k, IsKey: true}), translations)
		}
		return out
	case KindSequence:
		out := &Node{Kind: KindSequence, Seq: make([]*Node, len(n.Seq))}
		for i, child := range n.Seq {
			out.Seq[i] = rebuild(child, append(p, Step{Index: i}), translations)
		}
		return out
	case KindString:
		if v, ok := translations[p.String()]; ok {
			return &Node{Kind: KindString, Str: v}
		}
		return &Node{Kind: KindString, Str: n.Str}
	default:
		// Number, bool, null leaves are immutable — share is fine, but
		// copy anyway so callers can treat the result as fully owned.
		cp := *n
		return &cp
	}
}

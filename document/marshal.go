package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// JSON output
// ---------------------------------------------------------------------------

// MarshalJSON renders the tree as human-readable JSON: 2-space indentation,
// mapping keys in insertion order, non-ASCII characters unescaped, trailing
// newline.
func MarshalJSON(n *Node) []byte {
	var b bytes.Buffer
	writeJSON(&b, n, 0)
	b.WriteByte('\n')
	return b.Bytes()
}

func writeJSON(b *bytes.Buffer, n *Node, depth int) {
	switch n.Kind {
	case KindMapping:
		if len(n.Keys) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{\n")
		for i, k := range n.Keys {
			writeIndent(b, depth+1)
			b.WriteString(jsonString(k))
			b.WriteString(": ")
			writeJSON(b, n.Map[k], depth+1)
			if i < len(n.Keys)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		writeIndent(b, depth)
		b.WriteByte('}')
	case KindSequence:
		if len(n.Seq) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[\n")
		for i, child := range n.Seq {
			writeIndent(b, depth+1)
			writeJSON(b, child, depth+1)
			if i < len(n.Seq)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		writeIndent(b, depth)
		b.WriteByte(']')
	case KindString:
		b.WriteString(jsonString(n.Str))
	case KindNumber:
		b.WriteString(n.Num.String())
	case KindBool:
		b.WriteString(strconv.FormatBool(n.Bool))
	case KindNull:
		b.WriteString("null")
	}
}

func writeIndent(b *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("  ")
	}
}

// jsonString returns a JSON-encoded string value. Control characters get
// \uXXXX escapes, while printable non-ASCII characters (CJK etc.) stay
// literal. HTML escaping is off so '<' and '&' survive round-trips intact.
func jsonString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a plain string cannot fail.
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// ---------------------------------------------------------------------------
// YAML output
// ---------------------------------------------------------------------------

// MarshalYAML renders the tree as YAML with 2-space indentation, preserving
// mapping key order. The yaml.v3 emitter handles quoting of values that
// would otherwise resolve to a different scalar type.
func MarshalYAML(n *Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(yamlNode(n)); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func yamlNode(n *Node) *yaml.Node {
	switch n.Kind {
	case KindMapping:
		out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range n.Keys {
			out.Content = append(out.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				yamlNode(n.Map[k]))
		}
		return out
	case KindSequence:
		out := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, child := range n.Seq {
			out.Content = append(out.Content, yamlNode(child))
		}
		return out
	case KindString:
		s := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.Str}
		if n.Str == "" {
			s.Style = yaml.DoubleQuotedStyle
		}
		return s
	case KindNumber:
		tag := "!!int"
		if strings.ContainsAny(n.Num.String(), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: n.Num.String()}
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(n.Bool)}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

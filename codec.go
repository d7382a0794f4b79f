package portabletext

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Decode parses JSON Portable Text into a Document.
// - Requires _type on all nodes and child spans/markDefs where present
// - Captures unknown fields into Raw (including explicit nulls)
// - Does not normalize or semantically validate
func Decode(r io.Reader) (Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var doc Document
	for i := 0; dec.More(); i++ {
		path := fmt.Sprintf("[%d]", i)
		var rm json.RawMessage
		if err := dec.Decode(&rm); err != nil {
			return nil, wrap("decode", path, err)
		}
		n, err := parseNode(rm, path)
		if err != nil {
			return nil, err
		}
		doc = append(doc, n)
	}

	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeString is a convenience wrapper for Decode.
func DecodeString(s string) (Document, error) {
	return Decode(strings.NewReader(s))
}

// Encode serializes the AST to JSON followed by a newline.
// The input document is not mutated.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

// EncodeIndent is Encode with indentation, for humans.
func EncodeIndent(w io.Writer, doc Document, indent string) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	return enc.Encode(doc)
}

// EncodeString is a convenience wrapper for Encode.
func EncodeString(doc Document) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return wrap("decode", "", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return wrap("decode", "", fmt.Errorf("%w: expected '%c'", ErrUnexpectedToken, want))
	}
	return nil
}

//
// Parsing (path aware)
//

func parseNode(b []byte, path string) (Node, error) {
	obj, err := decodeObjectUseNumber(b)
	if err != nil {
		return Node{}, wrap("node", path, err)
	}
	ts, err := requireType(obj)
	if err != nil {
		return Node{}, wrap("node", path, err)
	}

	n := Node{Type: ts, Raw: map[string]any{}}

	for k, v := range obj {
		if v == nil && k != "_type" {
			n.Raw[k] = nil // preserve explicit null
			continue
		}
		switch k {
		case "_type":
		case "_key":
			n.Key = stringOrRaw(n.Raw, k, v, n.Key)
		case "style":
			n.Style = stringPtrOrRaw(n.Raw, k, v)
		case "listItem":
			n.ListItem = stringPtrOrRaw(n.Raw, k, v)
		case "language":
			n.Language = stringPtrOrRaw(n.Raw, k, v)
		case "code":
			n.Code = stringPtrOrRaw(n.Raw, k, v)
		case "children":
			if n.Children, err = parseSpanArray(v, path+".children"); err != nil {
				return Node{}, err
			}
		case "markDefs":
			if n.MarkDefs, err = parseMarkDefArray(v, path+".markDefs"); err != nil {
				return Node{}, err
			}
		case "level":
			num, ok := v.(json.Number)
			if !ok {
				n.Raw[k] = v
				continue
			}
			iv, err := num.Int64()
			if err != nil {
				return Node{}, wrap("node", path+".level", ErrInvalidNumber)
			}
			level := int(iv)
			n.Level = &level
		default:
			n.Raw[k] = v
		}
	}

	return n, nil
}

func parseSpanArray(v any, path string) ([]Span, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, wrap("node", path, ErrExpectedArray)
	}
	out := make([]Span, 0, len(arr))
	for i, item := range arr {
		p := fmt.Sprintf("%s[%d]", path, i)
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, wrap("span", p, ErrExpectedObject)
		}
		s, err := parseSpan(obj, p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func parseSpan(obj map[string]any, path string) (Span, error) {
	ts, err := requireType(obj)
	if err != nil {
		return Span{}, wrap("span", path, err)
	}

	s := Span{Type: ts, Raw: map[string]any{}}

	for k, v := range obj {
		switch k {
		case "_type":
		case "text":
			if str, ok := v.(string); ok {
				s.Text = &str
			} else {
				s.Raw[k] = v
			}
		case "marks":
			if v == nil {
				s.Raw[k] = nil
				continue
			}
			a, ok := v.([]any)
			if !ok {
				return Span{}, wrap("span", path+".marks", ErrInvalidMarks)
			}
			marks := make([]string, 0, len(a))
			for _, it := range a {
				ms, ok := it.(string)
				if !ok {
					return Span{}, wrap("span", path+".marks", ErrInvalidMarks)
				}
				marks = append(marks, ms)
			}
			s.Marks = marks
		default:
			s.Raw[k] = v
		}
	}

	return s, nil
}

func parseMarkDefArray(v any, path string) ([]MarkDef, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, wrap("node", path, ErrExpectedArray)
	}
	out := make([]MarkDef, 0, len(arr))
	for i, item := range arr {
		p := fmt.Sprintf("%s[%d]", path, i)
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, wrap("markDef", p, ErrExpectedObject)
		}
		ts, err := requireType(obj)
		if err != nil {
			return nil, wrap("markDef", p, err)
		}
		md := MarkDef{Type: ts, Raw: map[string]any{}}
		for k, v := range obj {
			switch k {
			case "_type":
			case "_key":
				md.Key = stringOrRaw(md.Raw, k, v, md.Key)
			default:
				md.Raw[k] = v
			}
		}
		out = append(out, md)
	}
	return out, nil
}

func requireType(obj map[string]any) (string, error) {
	t, ok := obj["_type"]
	if !ok {
		return "", ErrMissingType
	}
	ts, ok := t.(string)
	if !ok || ts == "" {
		return "", ErrInvalidType
	}
	return ts, nil
}

// stringOrRaw returns v as a string, or stores it in raw and returns def.
func stringOrRaw(raw map[string]any, k string, v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	raw[k] = v
	return def
}

func stringPtrOrRaw(raw map[string]any, k string, v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	raw[k] = v
	return nil
}

func decodeObjectUseNumber(b []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, ErrExpectedObject
	}
	return obj, nil
}

func pictureFromMap(m map[string]any) Picture {
	p := Picture{
		Src:    asString(m["src"]),
		Alt:    asString(m["alt"]),
		Width:  asInt(m["width"]),
		Height: asInt(m["height"]),
	}
	if arr, ok := m["sources"].([]any); ok {
		p.Sources = make([]PictureSource, 0, len(arr))
		for _, it := range arr {
			sm, ok := it.(map[string]any)
			if !ok {
				continue
			}
			p.Sources = append(p.Sources, PictureSource{
				Srcset: asString(sm["srcset"]),
				Width:  asInt(sm["width"]),
				Height: asInt(sm["height"]),
				Type:   asString(sm["type"]),
				Media:  asString(sm["media"]),
			})
		}
	}
	return p
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch x := v.(type) {
	case json.Number:
		i, _ := x.Int64()
		return int(i)
	case float64:
		return int(x)
	case int:
		return x
	}
	return 0
}

//
// JSON marshaling (re-emits Raw + known fields)
//

func (n Node) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(n.Raw)+10)

	for k, v := range n.Raw {
		m[k] = v
	}

	m["_type"] = n.Type

	if n.Key != "" {
		m["_key"] = n.Key
	}
	if n.Style != nil {
		m["style"] = *n.Style
	}
	if n.Children != nil {
		m["children"] = n.Children
	}
	if n.MarkDefs != nil {
		m["markDefs"] = n.MarkDefs
	}
	if n.ListItem != nil {
		m["listItem"] = *n.ListItem
	}
	if n.Level != nil {
		m["level"] = *n.Level
	}
	if n.Language != nil {
		m["language"] = *n.Language
	}
	if n.Code != nil {
		m["code"] = *n.Code
	}

	return json.Marshal(m)
}

func (s Span) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(s.Raw)+3)

	for k, v := range s.Raw {
		m[k] = v
	}

	m["_type"] = s.Type
	if s.Text != nil {
		m["text"] = *s.Text
	}
	if s.Marks != nil {
		m["marks"] = s.Marks
	}

	return json.Marshal(m)
}

func (md MarkDef) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(md.Raw)+2)

	for k, v := range md.Raw {
		m[k] = v
	}

	m["_type"] = md.Type
	if md.Key != "" {
		m["_key"] = md.Key
	}

	return json.Marshal(m)
}

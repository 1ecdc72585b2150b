package etf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ToJSON renders t as JSON. Map entries keep their insertion order, Bytes
// become an array of numbers, and floats always carry a fraction or an
// exponent so that FromJSON reads them back as floats.
func ToJSON(t Term) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return ToJSON(m)
}

func writeJSON(buf *bytes.Buffer, t Term) error {
	switch v := t.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case Integer:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Float:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("etf: %v has no JSON form", f)
		}
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		buf.WriteString(s)
	case String:
		encoded, err := json.Marshal(string(v))
		if err != nil {
			return err
		}
		buf.Write(encoded)
	case Bytes:
		buf.WriteByte('[')
		for i, b := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Itoa(int(b)))
		}
		buf.WriteByte(']')
	case List:
		buf.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Map:
		if v == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, v.values[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return &UnsupportedTypeError{Type: fmt.Sprintf("%T", t)}
	}
	return nil
}

// FromJSON parses a single JSON document into a term. Object key order is
// preserved; numbers without a fraction or exponent become Integer when they
// fit in 64 bits.
func FromJSON(data []byte) (Term, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	t, err := readJSON(dec, 0)
	if err != nil {
		return nil, fmt.Errorf("etf: invalid JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("etf: invalid JSON: trailing data after value")
	}
	return t, nil
}

func readJSON(dec *json.Decoder, depth int) (Term, error) {
	if depth > DefaultMaxDepth {
		return nil, errors.New("nesting too deep")
	}
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case json.Number:
		return jsonNumber(v)
	case json.Delim:
		switch v {
		case '[':
			list := List{}
			for dec.More() {
				elem, err := readJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				list = append(list, elem)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		case '{':
			m := NewMap(0)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key %v", keyTok)
				}
				value, err := readJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				m.Set(key, value)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

func jsonNumber(n json.Number) (Term, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := n.Int64(); err == nil {
			return Integer(i), nil
		}
	}
	f, err := n.Float64()
	if err != nil {
		return nil, err
	}
	return Float(f), nil
}

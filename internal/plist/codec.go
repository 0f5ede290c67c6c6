package plist

import (
	"errors"
	"fmt"
	"sort"

	howett "howett.net/plist"
)

// errNilValue is returned when a document holds a nil value, which no format can encode.
var errNilValue = errors.New("nil value")

// fromNative converts a value produced by the property-list decoder.
func fromNative(v any) Value {
	switch t := v.(type) {
	case string:
		return String(t)

	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		doc := NewDocument()
		for _, k := range keys {
			doc.Set(k, fromNative(t[k]))
		}

		return doc

	case []any:
		list := make(List, len(t))
		for i, e := range t {
			list[i] = fromNative(e)
		}

		return list

	default:
		return Scalar{V: t}
	}
}

// toNative converts a value into something the property-list encoder understands.
func toNative(v Value) (any, error) {
	switch t := v.(type) {
	case String:
		return string(t), nil

	case *Document:
		if t == nil {
			return nil, errNilValue
		}

		m := make(map[string]any, len(t.keys))
		for _, k := range t.keys {
			n, err := toNative(t.values[k])
			if err != nil {
				return nil, fmt.Errorf("key [%s]: %w", k, err)
			}

			m[k] = n
		}

		return m, nil

	case List:
		list := make([]any, len(t))
		for i, e := range t {
			n, err := toNative(e)
			if err != nil {
				return nil, fmt.Errorf("element [%d]: %w", i, err)
			}

			list[i] = n
		}

		return list, nil

	case Scalar:
		if t.V == nil {
			return nil, errNilValue
		}

		return t.V, nil

	default:
		return nil, errNilValue
	}
}

// decode parses data into a document and reports the format it was stored in.
func decode(data []byte) (*Document, int, error) {
	var raw any

	format, err := howett.Unmarshal(data, &raw)
	if err != nil {
		return nil, 0, fmt.Errorf("unmarshal property list: %w", err)
	}

	doc, ok := fromNative(raw).(*Document)
	if !ok {
		return nil, 0, fmt.Errorf("root is %T, not a dictionary", raw)
	}

	return doc, format, nil
}

// encode serializes doc in the given format.
func encode(doc *Document, format int) ([]byte, error) {
	v, err := toNative(doc)
	if err != nil {
		return nil, err
	}

	if format == howett.XMLFormat {
		return howett.MarshalIndent(v, format, "\t")
	}

	return howett.Marshal(v, format)
}

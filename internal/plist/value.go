// Package plist loads, edits and saves property-list documents.
//
// Values are modelled as a closed set of variants (String, *Document, List, Scalar) so
// that documents can be walked with a type switch instead of dynamic casts.
package plist

// Value is one of String, *Document, List or Scalar.
type Value interface {
	isValue()
}

// String is a string value.
type String string

// List is an ordered list of values.
type List []Value

// Scalar carries any other property-list primitive (integer, real, boolean, date, data,
// UID) through unchanged.
type Scalar struct {
	V any
}

func (String) isValue()    {}
func (List) isValue()      {}
func (Scalar) isValue()    {}
func (*Document) isValue() {}

// Document is an ordered mapping of string keys to values.
type Document struct {
	keys   []string
	values map[string]Value
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{values: make(map[string]Value)}
}

// Len returns the number of keys.
func (d *Document) Len() int {
	return len(d.keys)
}

// Keys returns the keys in order.
func (d *Document) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Get returns the value stored under key.
func (d *Document) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Set stores value under key. Existing keys keep their position, new keys are appended.
func (d *Document) Set(key string, value Value) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}

	d.values[key] = value
}

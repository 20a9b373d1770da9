package comparator

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Kind tags the concrete type carried by a Value.
type Kind uint8

const (
	KindMinKey Kind = iota // sentinel: compares less than every other value
	KindNull
	KindInt64
	KindFloat64
	KindString
	KindBytes
	KindBool
	KindMaxKey // sentinel: compares greater than every other value
)

// Value is a single field's contents inside a composite key document.
// It is intentionally small and concrete rather than an open interface —
// the comparator needs a closed set of kinds it can order canonically.
type Value struct {
	Kind    Kind
	Int64   int64
	Float64 float64
	Str     string
	Bytes   []byte
	Bool    bool
}

// MinKey and MaxKey are the +/-infinity sentinels a RangeNavigator uses
// as open-ended scan bounds for the trailing fields of a composite key.
var (
	MinKey = Value{Kind: KindMinKey}
	MaxKey = Value{Kind: KindMaxKey}
	Null   = Value{Kind: KindNull}
)

// Int64Value, StringValue, BytesValue, Float64Value, BoolValue are
// convenience constructors for composite-key fields.
func Int64Value(v int64) Value      { return Value{Kind: KindInt64, Int64: v} }
func Float64Value(v float64) Value  { return Value{Kind: KindFloat64, Float64: v} }
func StringValue(v string) Value    { return Value{Kind: KindString, Str: v} }
func BytesValue(v []byte) Value     { return Value{Kind: KindBytes, Bytes: v} }
func BoolValue(v bool) Value        { return Value{Kind: KindBool, Bool: v} }

// Field is one named, positioned component of a composite key Document.
type Field struct {
	Name  string
	Value Value
}

// Document is an ordered composite key, positioned by an index's key
// pattern rather than addressed by field name.
type Document struct {
	Fields []Field
}

// NewDocument builds a Document from field/value pairs in key-pattern
// order.
func NewDocument(fields ...Field) *Document {
	return &Document{Fields: fields}
}

// Get returns the value at position i, or MinKey if the document has
// fewer fields than the comparator's Ordering expects (a short document
// sorts as if its missing trailing fields were minus infinity).
func (d *Document) Get(i int) Value {
	if d == nil || i >= len(d.Fields) {
		return MinKey
	}
	return d.Fields[i].Value
}

// Len returns the number of fields present.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Fields)
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Fields: make([]Field, len(d.Fields))}
	for i, f := range d.Fields {
		v := f.Value
		if v.Bytes != nil {
			v.Bytes = append([]byte(nil), v.Bytes...)
		}
		out.Fields[i] = Field{Name: f.Name, Value: v}
	}
	return out
}

// Key is the opaque, self-describing on-disk encoding of a Document: a
// length-prefixed stream of (kind, payload) tuples. Slots store Keys, not
// Documents, so the bucket layout never needs a Document's field names.
type Key []byte

// EncodeKey serializes a Document into its opaque on-disk form. The
// overall length is itself prefixed so a KeyMax size check never needs
// to decode the body.
func EncodeKey(d *Document) Key {
	buf := make([]byte, 4, 64)
	for _, f := range d.Fields {
		buf = appendValue(buf, f.Value)
	}
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(buf)-4))
	return Key(buf)
}

func appendValue(buf []byte, v Value) []byte {
	buf = append(buf, byte(v.Kind))
	switch v.Kind {
	case KindMinKey, KindMaxKey, KindNull:
		// no payload
	case KindInt64:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], uint64(v.Int64))
		buf = append(buf, tmp[:]...)
	case KindFloat64:
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v.Float64))
		buf = append(buf, tmp[:]...)
	case KindBool:
		if v.Bool {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindString:
		buf = appendLengthPrefixed(buf, []byte(v.Str))
	case KindBytes:
		buf = appendLengthPrefixed(buf, v.Bytes)
	}
	return buf
}

func appendLengthPrefixed(buf, payload []byte) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(len(payload)))
	buf = append(buf, tmp[:]...)
	return append(buf, payload...)
}

// DecodeKey reverses EncodeKey. It returns an error (wrapped with a stack
// trace) if the bytes are truncated or carry an unknown Kind tag —
// corruption the pack allocator/journal contract should never surface,
// but the decoder does not trust its input blindly.
func DecodeKey(k Key) (*Document, error) {
	if len(k) < 4 {
		return nil, errors.New("comparator: key too short for length prefix")
	}
	body := k[4:]
	doc := &Document{}
	for len(body) > 0 {
		kind := Kind(body[0])
		body = body[1:]
		var v Value
		v.Kind = kind
		switch kind {
		case KindMinKey, KindMaxKey, KindNull:
			// no payload
		case KindInt64:
			if len(body) < 8 {
				return nil, errors.New("comparator: truncated int64 field")
			}
			v.Int64 = int64(binary.LittleEndian.Uint64(body[:8]))
			body = body[8:]
		case KindFloat64:
			if len(body) < 8 {
				return nil, errors.New("comparator: truncated float64 field")
			}
			v.Float64 = math.Float64frombits(binary.LittleEndian.Uint64(body[:8]))
			body = body[8:]
		case KindBool:
			if len(body) < 1 {
				return nil, errors.New("comparator: truncated bool field")
			}
			v.Bool = body[0] != 0
			body = body[1:]
		case KindString, KindBytes:
			if len(body) < 4 {
				return nil, errors.New("comparator: truncated length-prefixed field")
			}
			n := binary.LittleEndian.Uint32(body[:4])
			body = body[4:]
			if uint32(len(body)) < n {
				return nil, errors.New("comparator: length-prefixed field overruns key")
			}
			payload := append([]byte(nil), body[:n]...)
			body = body[n:]
			if kind == KindString {
				v.Str = string(payload)
			} else {
				v.Bytes = payload
			}
		default:
			return nil, errors.Errorf("comparator: unknown field kind %d", kind)
		}
		doc.Fields = append(doc.Fields, Field{Value: v})
	}
	return doc, nil
}

// Size returns the encoded byte length, used by bucket.go's KeyMax check
// without requiring a decode.
func (k Key) Size() int {
	return len(k)
}

func (v Value) String() string {
	switch v.Kind {
	case KindMinKey:
		return "MinKey"
	case KindMaxKey:
		return "MaxKey"
	case KindNull:
		return "null"
	case KindInt64:
		return fmt.Sprintf("%d", v.Int64)
	case KindFloat64:
		return fmt.Sprintf("%v", v.Float64)
	case KindString:
		return v.Str
	case KindBytes:
		return fmt.Sprintf("% x", v.Bytes)
	case KindBool:
		return fmt.Sprintf("%v", v.Bool)
	default:
		return "?"
	}
}

package etf

import "fmt"

// Version is the leading byte of every encoded buffer (format version 1).
const Version byte = 131

// Tag identifies the kind of the term that follows it on the wire.
type Tag byte

// Wire tags understood by this package.
const (
	TagNewFloat      Tag = 70
	TagCompressed    Tag = 80
	TagSmallInt      Tag = 97
	TagInt           Tag = 98
	TagFloat         Tag = 99 // legacy 31-byte ASCII float
	TagAtom          Tag = 100
	TagNil           Tag = 106
	TagString        Tag = 107 // byte list, not text
	TagList          Tag = 108
	TagBinary        Tag = 109
	TagSmallBigInt   Tag = 110
	TagSmallAtom     Tag = 115
	TagMap           Tag = 116
	TagAtomUTF8      Tag = 118
	TagSmallAtomUTF8 Tag = 119
)

// String returns the human-readable name of a tag.
func (t Tag) String() string {
	switch t {
	case TagNewFloat:
		return "NEW_FLOAT"
	case TagCompressed:
		return "COMPRESSED"
	case TagSmallInt:
		return "SMALL_INT"
	case TagInt:
		return "INT"
	case TagFloat:
		return "FLOAT"
	case TagAtom:
		return "ATOM"
	case TagNil:
		return "NIL"
	case TagString:
		return "STRING"
	case TagList:
		return "LIST"
	case TagBinary:
		return "BINARY"
	case TagSmallBigInt:
		return "SMALL_BIGINT"
	case TagSmallAtom:
		return "SMALL_ATOM"
	case TagMap:
		return "MAP"
	case TagAtomUTF8:
		return "ATOM_UTF8"
	case TagSmallAtomUTF8:
		return "SMALL_ATOM_UTF8"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// Atom literals that collapse into Bool and Null.
const (
	atomTrue  = "true"
	atomFalse = "false"
	atomNil   = "nil"
)

// floatTextLen is the fixed width of a legacy FLOAT term body.
const floatTextLen = 31

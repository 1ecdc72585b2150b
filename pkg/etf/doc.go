// Package etf encodes and decodes gateway payloads in the External Term
// Format, the compact binary alternative to JSON that the chat gateway
// accepts on its websocket.
//
// # Wire Format
//
// Every buffer starts with the version byte 131 followed by exactly one term.
// A term is a tag byte and a tag-specific body:
//
//	SMALL_INT    97   [value(1)]
//	INT          98   [value(4), signed]
//	SMALL_BIGINT 110  [arity(1)][sign(1)][magnitude(arity), little-endian]
//	NEW_FLOAT    70   [IEEE-754 double(8)]
//	FLOAT        99   [ASCII decimal(31)]            decode only
//	ATOM         100  [len(2)][latin-1]
//	SMALL_ATOM   115  [len(1)][latin-1]              decode only
//	ATOM_UTF8    118  [len(2)][utf-8]                decode only
//	SMALL_ATOM_UTF8 119 [len(1)][utf-8]              decode only
//	BINARY       109  [len(4)][bytes]
//	STRING       107  [len(2)][bytes]
//	LIST         108  [len(4)][elements...][tail]    tail must be NIL
//	NIL          106
//	MAP          116  [arity(4)][key value]...
//	COMPRESSED   80   [size(4)][zlib stream]
//
// All lengths are big-endian. The only little-endian field is the
// SMALL_BIGINT magnitude.
//
// # Data Model
//
// Terms are represented by the closed Term interface: Null, Bool, Integer,
// Float, String, Bytes, List and *Map. Atoms collapse on decode: "true" and
// "false" become Bool, "nil" becomes Null and every other atom becomes
// String. Map keys are always strings, so an atom key and a binary key with
// the same text are the same key. The empty list is always written as NIL.
//
// # Usage
//
//	payload := etf.MapOf(
//	    "op", etf.Integer(2),
//	    "d", etf.MapOf("token", etf.String(token)),
//	)
//	frame, err := etf.Pack(payload)
//
//	msg, err := etf.UnpackMap(frame)
//	op, _ := msg.Int("op")
//
// Native Go values can be encoded directly with Marshal, which maps them
// onto terms with FromValue.
//
// # Errors
//
// Decoding is all-or-nothing. Malformed input yields a *FormatError,
// decompression problems a *ResourceError, and encoding a value with no wire
// form an *UnsupportedTypeError. Use errors.Is with ErrFormat, ErrResource
// and ErrUnsupportedType to classify them.
//
// # Thread Safety
//
// Encoder and Decoder hold only immutable options and are safe for
// concurrent use. Each call owns its own buffer and cursor.
package etf

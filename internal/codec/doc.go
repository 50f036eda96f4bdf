// Package codec applies per-column serialization transforms.
//
// A record type maps column names to a Format. On write the engine encodes
// the configured columns in place before binding them as statement
// parameters; on read it decodes them back into the Go type of the target
// field.
//
// Supported formats:
//   - raw (or empty): identity, the value is stored as is
//   - json: structured text, stored as TEXT
//   - native: opaque MessagePack blob, stored as BLOB
//   - cbor: opaque CBOR blob, stored as BLOB
//
// Format names are validated lazily: an unknown name only fails when a
// column using it is encoded or decoded.
package codec

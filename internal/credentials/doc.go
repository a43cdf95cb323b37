// Package credentials persists the opaque session credentials of the
// messaging engine.
//
// A Bundle is a set of named binary entries, one per engine key (identity
// keys, pre-keys, sync keys...). Save merges an update into what is stored,
// treating a nil value as a deletion, and Clear removes everything so the
// next connection starts a fresh pairing.
//
// Three backends implement Store: FileStore keeps one file per entry in a
// dedicated directory, RedisStore keeps entries as fields of a single hash,
// and S3Store keeps one object per entry under a key prefix. MemoryStore is
// an in-process implementation for development and tests. Open selects a
// backend from Config.
package credentials

/*
Package tables implements reactive component tables: an in-memory store that
mirrors externally authoritative records and exposes them as typed rows keyed
by opaque entity ids.

We implement:

1. Tables, declared once on a Schema with a set of typed value fields and an
optional key schema. Tables without key fields hold one row under
SingletonEntity.

2. A Store holding the rows of every table of a Schema, with typed (Row) and
raw (RawRow) read/write paths.

3. Queries returning the entities whose row does or does not match a partial
row, both one-shot and live.

4. Subscriptions delivering the new and old row of every mutation.

5. Freezing, which holds one entity's displayed row steady while writes to it
are captured, and applies the most recent one on resume.

A Store is not safe for concurrent use. Callbacks run synchronously on the
goroutine making the write.

# Technical Details

**Entities.**
An entity is "0x" followed by the hex of a byte string whose length is a
multiple of 32. Tables that mirror keyed records derive the entity from the
key: each key field is encoded into its own 32-byte big-endian segment, in key
schema order (unsigned integers zero-padded, signed integers in two's
complement, bools as 0/1, addresses right-aligned). Derived identities that
are not meant to be decoded use keccak-256 (HashEntity).

**Field encoding.**
Every stored field is a RawField: the declared FieldType, recorded at write
time, and wire text. Numbers use the shortest round-tripping decimal form,
wide integers are decimal text, bools are "true"/"false", strings and
entities are stored as-is, and arrays are a single JSON document (wide integer
elements as JSON strings). Reads decode by the stored tag alone; a field
without a tag is an error.

**Queries** compare wire text and tags directly, so each named field costs one
string comparison.

**Snapshots** are msgpack documents of a table's raw rows, used to hydrate a
store from another process.
*/
package tables

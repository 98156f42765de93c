// Package formats decodes glTF 2.0 documents (JSON or GLB) and normalizes them
// into an arena-indexed Document: every cross reference is an index into a flat
// slice and -1 marks an absent reference.
package formats

// None marks an absent index reference.
const None = -1

// Package model defines the movement dataset: the ten record collections,
// the snapshot that groups them, the reference rules linking them, and the
// error kinds raised while compiling and validating a dataset.
//
// This package imports nothing internal. Every other internal package
// depends on it, so it stays free of I/O and of parsing concerns.
//
// Key constraints:
//   - Collections are identified by the Collection enum, never by raw strings
//   - JSON tags use camelCase and match the snapshot exchange format
//   - Optional scalars are pointers so that absent values encode as null
//   - Snapshot fingerprints use canonical JSON (sorted keys, NFC strings)
package model

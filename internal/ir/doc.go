// Package ir provides the literal value layer shared by the compiler, the
// serializer and the harness.
//
// Query documents carry constants as loosely typed YAML/CUE scalars. This
// package turns them into the exact Go values handed to database drivers,
// and gives those values one canonical JSON encoding used for statement
// fingerprints and golden snapshots.
//
// Key design constraints:
//   - NO binary floats - fractional numbers become decimal.Decimal
//   - Canonical JSON sorts object keys by UTF-16 code units and NFC-normalizes strings
//   - ir imports nothing internal
package ir

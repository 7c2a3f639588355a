// Package roster parses the published-CSV membership roster into normalized
// member records.
//
// The pieces are pure and composable:
//   - [ParseLine] / [Parse] : CSV tokenization with quoted-field handling
//   - [Normalizer] : phone canonicalization into international form
//   - [DetectColumns] : heuristic header-to-column mapping
//   - [Builder] : row-to-[models.Member] construction with skip rules
//
// Rows that cannot produce a valid member (too few columns, empty identifier,
// empty name) are skipped and counted, never treated as errors.
package roster

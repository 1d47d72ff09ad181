// Package dataprocessing turns the semicolon-delimited transactions file into
// the canonical sales table used by every report view.
//
// # Pipeline
//
// Normalize runs these steps in order:
//
//  1. Decode UTF-8, dropping a leading byte order mark.
//  2. Parse ';'-separated records; the first record is the header.
//  3. Clean header names (surrounding whitespace, embedded U+FEFF).
//  4. Trim Product and Branch; a missing cell becomes "".
//  5. Coerce Sales, Quantity and Visitors; anything unparsable becomes 0.
//  6. Parse Month as DD/MM/YY; anything else becomes nil and the row is kept.
//  7. Derive the month label ("August 2025") from the parsed month.
//  8. Attach one advisory when at least one month failed to parse.
//
// Only a missing or unreadable file, a missing header or missing required
// columns fail the load. Quotes are parsed lazily, so a stray `"` stays part
// of its cell. Every other defect is repaired in place so the row count
// always equals the input record count.
//
// # Caching
//
// TableCache keeps one canonical table per absolute path. A cached table is
// reused while the file's size and modification time are unchanged; when they
// change the content is hashed with BLAKE2b-256 and only re-normalized if the
// hash differs. Concurrent loads of one path share a single normalization.
//
//	cache := dataprocessing.NewTableCache(dataprocessing.NewNormalizer(logger, dataprocessing.NormalizerConfig{}), logger, 8)
//	table, info, err := cache.Get(ctx, "Products_2025.csv")
package dataprocessing

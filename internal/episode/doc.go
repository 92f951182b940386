// Package episode derives episode keys from filenames and pairs the files of
// two directory trees that share a key.
//
// Key types:
//   - Key: normalized episode token such as "E07" or "E123"
//   - Extractor: strict or relaxed filename matcher
//   - Pair: one key matched in both trees
//
// Primary entry points:
//   - Extractor.Extract: filename to Key
//   - Scan: recursive key map of a single tree
//   - PairDirs: sorted intersection of two scanned trees
//
// Pairing is a pure function of the directory contents at call time; there is
// no incremental or watch behaviour.
package episode

// Package cache stores article lookup results on disk with a TTL so that
// re-running a search over the same dataset does not re-query batches that
// were answered recently.
//
// Entries are JSON files under ~/.citygap/cache/ named by a SHA-256 key over
// the endpoint and the exact, ordered title list of a batch. Expired entries
// are removed lazily on read and by Prune.
package cache

// Package batch splits ordered slices into fixed-size, contiguous batches.
//
// Batches are produced lazily through an iterator so a caller can stop as soon
// as it has what it needs; the remaining batches are never materialised. The
// source slice is never copied: every batch aliases it.
package batch

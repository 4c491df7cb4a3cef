// Package embed provides batch generation of stored factor vectors for
// analyzed cases.
//
// The search pipeline prefers stored vectors over on-the-fly embedding, so
// running the backfiller after ingestion or after an embedding model change
// keeps searches off the slow path. The package supports paged corpus
// iteration, progress tracking, retry with exponential backoff, and vector
// normalization for cosine similarity.
package embed

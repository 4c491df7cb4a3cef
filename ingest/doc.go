// Package ingest loads preprocessed case analyses into storage.
//
// The Pipeline type manages the loading workflow for analyzed cases:
//   - Adding case records and their extracted factors and holdings
//   - Adding citation edges to the citation graph
//   - Generating factor vectors asynchronously
//
// Vector generation runs on a worker pool so bulk loads are not gated on
// the embedding provider. Errors during async processing are logged but do
// not fail the load; the search pipeline embeds missing vectors on the fly
// and the embed backfiller can fill gaps later.
package ingest

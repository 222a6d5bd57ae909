// Package ingestion provides pipeline orchestration for adding documents to
// the knowledge base.
//
// The Pipeline type manages the ingestion workflow for documents, including:
//   - Extracting raw text from supported file formats
//   - Splitting text into overlapping chunks with metadata
//   - Generating embeddings concurrently on a worker pool
//   - Atomically replacing the document's previous chunks in storage
//
// A document either lands completely or not at all: any failure before the
// final store leaves the previous version of the document untouched.
package ingestion

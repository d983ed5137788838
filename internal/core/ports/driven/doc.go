// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding models, retrieval indexes, the
// cross-encoder reranker, and the durable memory store.
package driven

// Package domain defines the core domain types and collaborator interfaces.
//
// Concept-oriented files (cursor.go, queue.go, checkpoint.go, search.go, sentiment.go, sink.go)
// hold shared types and the narrow contracts the poller and curator depend on.
// No implementation code, just contracts. Adapters implement them.
package domain

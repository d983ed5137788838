// Package services implements the core retrieval pipeline: reciprocal
// rank fusion, query expansion, memory scoring, the ephemeral session
// store, and the orchestrator that composes them per query.
package services

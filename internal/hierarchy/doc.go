// Package hierarchy models the three-level workflow catalog
// (Phase → Section → Line Item) and the traversal order over it.
//
// The catalog is read-only to the engine: a Hierarchy is built once from
// stored rows (or a seeded template) and shared without locking. The three
// per-level display orders induce a single total order over every line
// item; Next walks that order, skipping inactive and already-completed
// items, and reports exhaustion as workflow completion.
//
// Everything in this package is pure. Persistence lives in internal/store,
// and the transaction that advances a tracker lives in internal/engine.
package hierarchy

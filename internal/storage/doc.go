// Package storage holds the stubs registered on one engine.
//
// StubStore is the contract the engine and admin API program against;
// MemoryStore is the only implementation. Stubs live for the lifetime of the
// engine and are cleared by a reset, so nothing is persisted.
package storage

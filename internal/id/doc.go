// Package id generates identifiers for stubs and journal entries.
//
// Stub IDs are random UUIDs. Journal entry IDs are monotonic ULIDs: they
// encode the arrival time, so sorting entries by ID sorts them by when the
// engine received them, even within one millisecond.
package id

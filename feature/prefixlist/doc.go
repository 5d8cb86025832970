// Package prefixlist is the adapter between the sync engine and managed
// prefix lists.
//
// # Ownership Model
//
// A prefix list may hold entries this system never wrote: operator-added
// blocks, other tooling, wider aggregate routes. Ownership is therefore
// marked per entry, in the description, with a configurable tag prefix. An
// entry counts as managed only when it is a /32 IPv4 prefix and its
// description carries the tag; everything else is foreign, gets counted for
// capacity purposes and is never modified or removed.
//
// # Versioning
//
// Every mutation names the version it was computed against. When the list
// moved on, or is mid-modification by another actor, the provider rejects
// the call and this package reports a version conflict; the engine responds
// by re-reading and re-diffing rather than resending stale changes. After a
// successful mutation the service waits for the list to settle and returns
// the new version for the next batch.
package prefixlist

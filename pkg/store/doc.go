// Package store persists Go values under string keys in a named store.
//
// A store is opened through a Manager (or the package-level functions
// that use the default one) and used through the returned Handle:
//
//	h := store.Create("run1", store.DefaultOptions())
//	if !h.Valid() {
//	    return h.Err()
//	}
//	count := 42
//	if err := store.Write(h, "count", count); err != nil {
//	    return err
//	}
//	if err := h.Close(); err != nil {
//	    return err
//	}
//
//	r := store.Open("run1", store.DefaultOptions())
//	n, err := store.Read[int](r, "count")
//
// The store name selects the medium: a plain path or file:// URL is a
// directory, mem:// lives in memory for the Manager's lifetime, sqlite://
// is a single database file and http(s):// is a remote store, optionally
// read through a local cache (Options.CachedRead).
//
// Every store has a header blob listing its entries with their type names
// and checksums. Entry bytes live under "objects/<key>". Write persists
// immediately; the header is only written by Flush and Close, so a store
// that is dropped without either keeps the entries of its last flush.
//
// Adopt hands an object to the store. Rewrite, Flush and Close persist the
// object's state at that time, so changes made after Adopt are picked up.
package store

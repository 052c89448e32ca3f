// Package window implements the client-side bounded page cache for
// keyset-paginated photo listings.
//
// A Manager owns one scroll position over one filter/sort scope. It
// keeps a contiguous run of fetched pages, tracks the outward-facing
// head and tail cursors, deduplicates items by a caller-supplied
// stable key, and evicts pages from the far edge when the window grows
// past its cap. Eviction removes cached items, not reachability: the
// recomputed edge cursors can always re-fetch the evicted region.
//
// One Manager per distinct scope. Cursors are scope-bound, so a view
// that needs two independent scroll positions (say, one project and
// the union view) must hold two Managers; the Registry keys them by
// (mode, scope id) explicitly rather than through ambient globals.
package window

// Package query builds the SQL predicates and ordering clauses for
// keyset-paginated photo listings.
//
// Every listing is ordered by a primary sort column plus the photo id
// as a tie-break, which makes the order total even when the primary
// column has duplicates. Pagination cursors are translated into a
// boundary predicate over that (value, id) pair instead of an OFFSET,
// so pages stay stable while photos are inserted or deleted
// concurrently.
//
// Filters are a closed configuration struct rather than an open map,
// so "did the filters change" is a well-defined fingerprint
// comparison.
package query

// Package database provides SQLite storage for the photo browsing
// service.
//
// It handles storage and retrieval of:
//   - Photo records (filename, capture time, file type, rating, flag)
//   - Projects (shoots) that own photos, including soft-deleted
//     archived projects excluded from union views
//   - Tags and photo/tag assignments
//
// Listing queries are keyset-paginated: pages are bounded by a
// (sort value, id) cursor predicate built by internal/query, never by
// an OFFSET, so pages stay stable under concurrent inserts and
// deletes. The database uses WAL mode for improved concurrent read
// performance and includes automatic schema initialization.
package database

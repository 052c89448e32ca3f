// Package handlers provides HTTP request handlers for the photo stream API.
//
// It includes handlers for:
//   - Cursor-paginated photo listing
//   - Deep-link resolution (locating a photo's page)
//   - Project listing and collection stats
//   - Health checks and version info
package handlers

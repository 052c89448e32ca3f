// Package cursor encodes and decodes the opaque pagination tokens used
// by the keyset-paginated photo listing API.
//
// A token is base64-encoded JSON carrying the boundary row's sort value
// and its id tie-break. Tokens are self-contained and URL-safe; the
// server keeps no session state for them. Decoding is deliberately
// tolerant of alphabet and padding variants, since tokens travel
// through query strings, proxies, and clients that re-encode them.
package cursor

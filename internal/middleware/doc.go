// Package middleware provides HTTP middleware for the photo stream application.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with path normalization
//   - Response compression (gzip, deflate)
//   - Configurable filtering for health check endpoints
package middleware

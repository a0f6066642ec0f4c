// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: API key validation through the X-API-Key header. An empty key disables it.
//   - rayid: tags every request with a RayID, stored in the context locals and echoed in
//     the X-Ray-ID response header for tracing. Handlers log it via logger.WithRayID.
//
// RayID must be registered first so every later log line carries the id.
package middleware

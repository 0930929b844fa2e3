// Package http wires the licensing service into a chi router. It exposes
// the license status and revalidation endpoints under /api/license, a
// health probe, and an optional Prometheus metrics endpoint, and applies
// the license gate to everything else.
package http

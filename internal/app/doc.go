// Package app assembles the licensed daemon: configuration, logging,
// telemetry, the periodic license validation runner, and the HTTP server.
package app

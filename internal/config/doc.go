// Package config provides centralized configuration management for the
// entitle licensing system. It handles loading configuration from multiple
// sources, validation, and provides a type-safe API for accessing
// configuration values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern ENTITLE_* for namespacing:
//
//	ENTITLE_SERVER_PORT=8080
//	ENTITLE_LICENSING_SERVER_URL=https://licensing.example.com
//	ENTITLE_LICENSING_CHECK_INTERVAL=6h
//	ENTITLE_LOGGING_LEVEL=info
//
// # Configuration File
//
// A config.yaml next to the executable (or the path named by
// ENTITLE_CONFIG_FILE) is merged underneath the environment:
//
//	licensing:
//	  server_url: https://licensing.example.com
//	  check_timeout: 10s
//	  check_interval: 6h
//	paths:
//	  license_file: license.dat
//	  trust_anchor_file: license.pub
//
// Validation runs after merging; an invalid configuration fails startup
// rather than degrading at runtime.
package config

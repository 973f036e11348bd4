// Package config loads server settings from the environment and validates
// the listen address.
//
// Environment:
//   - RPS_HOST - IP to bind (default 127.0.0.1)
//   - RPS_PORT - TCP port, 1-65535 (default 6767)
//   - RPS_LOG_LEVEL - debug, info, warn or error (default info)
//   - RPS_DEBUG - human-readable development logging
//   - RPS_ALLOWED_ORIGINS - comma-separated browser origins; empty allows all
//
// Validation errors wrap ErrMissingOrInvalidPort or ErrInvalidBindAddress.
package config

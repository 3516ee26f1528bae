// Package tokenstore provides storage abstractions for access tokens.
//
// Individual backends cover different security and deployment tradeoffs:
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Env: Read-only environment variable access (requires external secret management)
//   - Memory: Process-lifetime storage for session-scoped credentials
//
// Scoped composes a persistent backend and a session backend into the
// two-scope model the dashboard uses: a token lives in exactly one scope at a
// time, and writes follow whichever scope currently holds the token.
package tokenstore

// Package testutil provides utilities for testing objstore components.
//
// Key components:
//   - TestEnvironment: a store Manager wired to isolated filesystems
//   - MockBackend: an in-memory backend that records calls and fails on demand
//   - MockPaths: fixed directories instead of the user's XDG dirs
//
// Usage guidelines:
//   - Most tests should use EnvMemoryOnly for speed and isolation
//   - Only backend and CLI tests need EnvIsolated and real files
//   - Each test should be completely isolated with no shared state
package testutil

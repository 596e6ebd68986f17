// Package testutils provides testing utilities for the timeline server.
//
// It contains mocks shared across the project's test suites:
//   - FileBasedBlobStore: a disk-backed attachment store mock with error injection
//   - MemoryEmailStore: an in-memory email record store
package testutils

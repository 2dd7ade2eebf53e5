// ABOUTME: Ring buffer package for pump-to-device hand-off
// ABOUTME: Provides a lock-free SPSC byte ring with context-aware blocking
// Package ring provides the buffer every ring-fed backend uses between a
// stream's pump goroutine and the native device callback.
package ring

// ABOUTME: Null audio driver package
// ABOUTME: Virtual device used when no sound hardware is reachable, and in tests
// Package null implements a backend that consumes samples at the stream's
// nominal rate without producing sound. It is always available and registered
// with the lowest priority.
package null

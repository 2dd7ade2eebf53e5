// ABOUTME: Backend package defining the capability set every audio driver implements
// ABOUTME: Provides the Backend and Stream interfaces plus the driver registry
// Package backend defines the contract between the stream engine and a
// platform audio driver.
//
// A driver registers a Factory from its package init function. The engine
// walks Factories in priority order and uses the first one whose Init
// succeeds:
//
//	import _ "github.com/DingusDevOrg/cubeb/pkg/audio/backend/all"
//
// Drivers whose native API pulls samples from a callback (oto, malgo,
// portaudio, beep) feed that callback from a RingFeed; the engine's pump
// pushes into it with Stream.Write, which blocks while the device buffer is
// full. That blocking is what paces the pump.
package backend

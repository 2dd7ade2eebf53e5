// ABOUTME: Device limits and errors shared by the cgo and stub builds
// ABOUTME: Keeps the registry name available without cgo
package malgo

import "errors"

// Name is the registry name of the malgo driver.
const Name = "malgo"

const (
	MinRate     = 8000
	MaxRate     = 384000
	MaxChannels = 32

	quantum = 32
)

// ErrDeviceLost reports a device that stopped on its own.
var ErrDeviceLost = errors.New("malgo: playback device stopped unexpectedly")

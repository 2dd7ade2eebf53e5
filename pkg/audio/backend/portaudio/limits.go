// ABOUTME: Registry name shared by the tagged and stub builds
// ABOUTME: Keeps the driver discoverable in every build
package portaudio

// Name is the registry name of the PortAudio driver.
const Name = "portaudio"

const (
	priority = 30
	quantum  = 64
)

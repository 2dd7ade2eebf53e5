// ABOUTME: PortAudio playback driver
// ABOUTME: Built with -tags portaudio; otherwise registers as unavailable
// Package portaudio drives playback through github.com/gordonklaus/portaudio.
// Build with -tags portaudio and the PortAudio development headers
// installed.
package portaudio

// Package app runs a cubeb-play session: one source decoded ahead on its
// own goroutine, one stream, and the user controls coming from the UI.
package app

// Package ui implements the terminal interface of cubeb-play.
//
// The model only renders StatusMsg updates and forwards key presses on
// Controls channels; it never touches a stream itself.
package ui

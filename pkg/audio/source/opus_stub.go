//go:build !cgo || nolibopusfile

// ABOUTME: Placeholder when libopusfile is not linked
// ABOUTME: Opening .opus files reports why instead of failing to build
package source

import "errors"

// OpenOpus fails without cgo and libopusfile.
func OpenOpus(path string) (Source, error) {
	return nil, errors.New("opus support requires cgo and libopusfile")
}

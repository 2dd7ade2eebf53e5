// Package version holds the product name and release version of the cubeb tools.
package version

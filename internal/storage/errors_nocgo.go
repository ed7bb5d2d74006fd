//go:build !cgo

package storage

// Without cgo the mattn driver is a stub and never returns its own errors.
func cgoCode(error) (int, bool) {
	return 0, false
}

//go:build !unix

package fsx

// Windows reports cross-volume moves as ERROR_NOT_SAME_DEVICE, which os.Rename
// surfaces as a plain LinkError; it is not classified here.
func isEXDEV(err error) bool {
	return false
}

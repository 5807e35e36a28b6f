//go:build !windows

package excel

// setHidden is a no-op: the dot prefix is what hides a file here.
func setHidden(string) error {
	return nil
}

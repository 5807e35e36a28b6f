//go:build windows

package excel

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func setHidden(path string) error {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}

	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return fmt.Errorf("read attributes of %s: %w", path, err)
	}

	if err := windows.SetFileAttributes(p, attrs|windows.FILE_ATTRIBUTE_HIDDEN); err != nil {
		return fmt.Errorf("hide %s: %w", path, err)
	}

	return nil
}

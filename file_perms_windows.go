//go:build windows
// +build windows

package stache

import "os"

func preserveFilePermissions(path string, fileInfo os.FileInfo) error {
	return nil
}

//go:build !unix && !windows

package relocate

func isCrossDevice(error) bool { return false }

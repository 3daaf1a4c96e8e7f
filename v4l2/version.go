package v4l2

import "fmt"

// VersionInfo decodes the 32-bit kernel driver version returned by
// VIDIOC_QUERYCAP: (major<<16)|(minor<<8)|patch.
type VersionInfo struct {
	Major, Minor, Patch uint8
}

// DecodeVersion splits a raw VIDIOC_QUERYCAP version field into its
// major.minor.patch triple.
func DecodeVersion(v uint32) VersionInfo {
	return VersionInfo{
		Major: uint8(v >> 16),
		Minor: uint8(v >> 8),
		Patch: uint8(v),
	}
}

// String renders the version as "major.minor.patch".
func (v VersionInfo) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

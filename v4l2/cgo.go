package v4l2

/*
#cgo linux CFLAGS: -I/usr/include

#include <linux/videodev2.h>
*/
import "C"

// This file centralizes the cgo compiler directives for the package.
//
// The default build uses the system V4L2 kernel UAPI headers from
// /usr/include, provided on Debian/Ubuntu by linux-libc-dev, on Fedora/RHEL
// by kernel-headers, and on Arch by linux-headers. To point at a different
// or newer header tree (e.g. for cross-compilation), set CGO_CFLAGS:
//
//	CGO_CFLAGS="-I/path/to/sysroot/usr/include" GOARCH=arm64 go build

// Package v4l2 provides typed, low-level Go bindings for the Linux
// Video4Linux2 (V4L2) character-device ABI: ioctl request codes, the
// kernel's wire structs (via cgo against <linux/videodev2.h>), and the
// enumerations that make the raw 32-bit constants self-describing.
//
// This package owns nothing beyond a single file descriptor passed in by
// the caller on every call; it has no notion of device lifecycle, buffer
// ownership, or control registries — those live in package device. That
// split mirrors the V4L2 spec itself: the kernel ABI is a flat set of
// ioctls, and everything stateful is a userspace convention built on top.
package v4l2

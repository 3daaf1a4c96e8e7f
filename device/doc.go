// Package device builds the stateful capture/output model on top of the
// stateless ioctl wrappers in package v4l2: capability discovery, the
// buffer-manager state machine, the three frame reader policies, the
// control registry, and the config file round trip.
package device

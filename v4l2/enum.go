package v4l2

// iterEnum is the generic enumeration helper backing ENUM_FMT,
// ENUM_FRAMESIZES, ENUM_FRAMEINTERVALS, and ENUMINPUT. step writes the
// next index into its request struct, issues the ioctl, records the
// result, and reports whether to go on; iteration stops when the kernel
// signals "invalid index" (wrapped as ErrorBadArgument) or when step
// itself returns false. A bad-argument error at index 0 is returned to
// the caller so an empty device capability (no formats, no inputs, ...)
// is distinguishable from a transport error; once at least one entry has
// been collected, "invalid index" simply ends the loop.
func iterEnum(step func(index uint32) (keep bool, err error)) error {
	for index := uint32(0); ; index++ {
		keep, err := step(index)
		if err != nil {
			if IsInvalidIndex(err) && index > 0 {
				return nil
			}
			return err
		}
		if !keep {
			return nil
		}
	}
}

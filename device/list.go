package device

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/kestrelcam/v4lcap/v4l2"
)

// devRoot is the directory device discovery scans. It is a variable so
// tests can point discovery at a fixture directory.
var devRoot = "/dev"

var devPattern = regexp.MustCompile(`^video([0-9]+)$`)

// trailingDigitsRE matches the run of decimal digits at the end of a
// path's final component, independent of what precedes them.
var trailingDigitsRE = regexp.MustCompile(`([0-9]+)$`)

// Devices returns every video* node under the device root, sorted by
// path. Entries are matched by name only; whether a path is actually an
// openable character device is decided when it is opened.
func Devices() ([]string, error) {
	entries, err := os.ReadDir(devRoot)
	if err != nil {
		return nil, fmt.Errorf("device: list: %w", err)
	}
	var result []string
	for _, entry := range entries {
		if !devPattern.MatchString(entry.Name()) {
			continue
		}
		result = append(result, devRoot+"/"+entry.Name())
	}
	sort.Strings(result)
	return result, nil
}

// CaptureDevices returns every device under Devices() that, once opened
// and probed, advertises VIDEO_CAPTURE support. Devices that fail to open
// are silently skipped.
func CaptureDevices() ([]string, error) {
	paths, err := Devices()
	if err != nil {
		return nil, err
	}
	var result []string
	for _, path := range paths {
		dev, err := Open(path)
		if err != nil {
			continue
		}
		for _, bt := range dev.Info().BufTypes {
			if bt == v4l2.BufTypeVideoCapture {
				result = append(result, path)
				break
			}
		}
		dev.Close()
	}
	return result, nil
}

// DeviceNumber extracts the trailing integer from a path's final
// component (e.g. "/dev/video3" -> 3). It returns an error if the path
// has no trailing integer at all.
func DeviceNumber(path string) (int, error) {
	base := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			base = path[i+1:]
			break
		}
	}
	m := trailingDigitsRE.FindStringSubmatch(base)
	if m == nil {
		return 0, fmt.Errorf("device: %s: no trailing integer", path)
	}
	return strconv.Atoi(m[1])
}

package device

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Config is a textual snapshot of a device's identity and control values,
// in a two-section INI-like layout:
//
//	[device]
//	driver = mock
//	card = mock camera
//	bus_info = mock:usb
//	version = 5.4.12
//	legacy = false
//
//	[controls]
//	brightness = 0
//	contrast = 32
type Config struct {
	Driver  string
	Card    string
	BusInfo string
	Version string
	Legacy  bool

	Controls map[string]string
}

var sectionRE = regexp.MustCompile(`^\[(\w+)\]$`)
var kvRE = regexp.MustCompile(`^([^=]+?)\s*=\s*(.*)$`)

// Acquire populates a Config snapshot of dev, reading driver/card/bus/
// version from Info and every registered control's current value.
func Acquire(dev *Device) (*Config, error) {
	info := dev.Info()
	cfg := &Config{
		Driver:   info.Driver,
		Card:     info.Card,
		BusInfo:  info.BusInfo,
		Version:  info.Version.String(),
		Legacy:   info.LegacyControls,
		Controls: map[string]string{},
	}
	for _, c := range dev.Controls().All() {
		s, err := controlValueString(c)
		if err != nil {
			continue
		}
		cfg.Controls[c.CanonicalName()] = s
	}
	return cfg, nil
}

func controlValueString(c Control) (string, error) {
	switch ctrl := c.(type) {
	case *IntegerControl:
		v, err := ctrl.Get()
		return strconv.FormatInt(v, 10), err
	case *Integer64Control:
		v, err := ctrl.Get()
		return strconv.FormatInt(v, 10), err
	case *U8Control:
		v, err := ctrl.Get()
		return strconv.FormatInt(v, 10), err
	case *U16Control:
		v, err := ctrl.Get()
		return strconv.FormatInt(v, 10), err
	case *U32Control:
		v, err := ctrl.Get()
		return strconv.FormatInt(v, 10), err
	case *BooleanControl:
		v, err := ctrl.Get()
		return strconv.FormatBool(v), err
	case *MenuControl:
		v, err := ctrl.Get()
		return strconv.FormatInt(v, 10), err
	case *IntegerMenuControl:
		v, err := ctrl.Get()
		return strconv.FormatInt(v, 10), err
	default:
		return "", fmt.Errorf("device: config: control %s: no textual value", c.CanonicalName())
	}
}

// Save writes cfg to path in the two-section format. It writes the fields
// exactly as they are and does not call Acquire itself: an empty Config
// is written with empty identity fields and no controls.
func (cfg *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("device: config: save: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "[device]")
	fmt.Fprintf(w, "driver = %s\n", cfg.Driver)
	fmt.Fprintf(w, "card = %s\n", cfg.Card)
	fmt.Fprintf(w, "bus_info = %s\n", cfg.BusInfo)
	fmt.Fprintf(w, "version = %s\n", cfg.Version)
	fmt.Fprintf(w, "legacy = %t\n", cfg.Legacy)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[controls]")
	for _, name := range sortedKeys(cfg.Controls) {
		fmt.Fprintf(w, "%s = %s\n", name, cfg.Controls[name])
	}
	return w.Flush()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// Load reads a Config from path, replacing any prior state.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, kindErr(ErrConfiguration, err, "device: config: load %s", path)
	}
	defer f.Close()

	cfg := &Config{Controls: map[string]string{}}
	section := ""
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") || strings.HasPrefix(text, ";") {
			continue
		}
		if m := sectionRE.FindStringSubmatch(text); m != nil {
			section = m[1]
			continue
		}
		m := kvRE.FindStringSubmatch(text)
		if m == nil {
			return nil, kindErr(ErrConfiguration, nil, "device: config: %s:%d: malformed line %q", path, line, text)
		}
		key, val := m[1], m[2]
		switch section {
		case "device":
			switch key {
			case "driver":
				cfg.Driver = val
			case "card":
				cfg.Card = val
			case "bus_info":
				cfg.BusInfo = val
			case "version":
				cfg.Version = val
			case "legacy":
				cfg.Legacy = val == "true" || val == "1"
			}
		case "controls":
			cfg.Controls[key] = val
		default:
			return nil, kindErr(ErrConfiguration, nil, "device: config: %s:%d: key outside any section", path, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, kindErr(ErrConfiguration, err, "device: config: %s: read", path)
	}
	return cfg, nil
}

// Validate checks that every controls entry names a known control on dev.
// In pedantic mode it also requires driver/card/version/legacy equality.
func (cfg *Config) Validate(dev *Device, pedantic bool) error {
	for name := range cfg.Controls {
		if _, err := dev.Controls().ByName(name); err != nil {
			return kindErr(ErrConfiguration, err, "device: config: validate: unknown control %q", name)
		}
	}
	if !pedantic {
		return nil
	}
	info := dev.Info()
	switch {
	case cfg.Driver != info.Driver:
		return kindErr(ErrCompatibility, nil, "device: config: driver %q != device driver %q", cfg.Driver, info.Driver)
	case cfg.Card != info.Card:
		return kindErr(ErrCompatibility, nil, "device: config: card %q != device card %q", cfg.Card, info.Card)
	case cfg.Version != info.Version.String():
		return kindErr(ErrCompatibility, nil, "device: config: version %q != device version %q", cfg.Version, info.Version.String())
	case cfg.Legacy != info.LegacyControls:
		return kindErr(ErrCompatibility, nil, "device: config: legacy %t != device legacy %t", cfg.Legacy, info.LegacyControls)
	}
	return nil
}

// Apply writes every control cfg names onto dev that is writable, repeated
// cycles times so controls whose legal range depends on another control
// can settle.
func (cfg *Config) Apply(dev *Device, cycles int) error {
	if cycles < 1 {
		cycles = 1
	}
	for i := 0; i < cycles; i++ {
		for name, raw := range cfg.Controls {
			ctrl, err := dev.Controls().ByName(name)
			if err != nil {
				return kindErr(ErrConfiguration, err, "device: config: apply: %s", name)
			}
			if !ctrl.Writable() {
				continue
			}
			if err := applyValue(ctrl, raw); err != nil {
				return fmt.Errorf("device: config: apply: %s: %w", name, err)
			}
		}
	}
	return nil
}

func applyValue(c Control, raw string) error {
	switch ctrl := c.(type) {
	case *BooleanControl:
		return ctrl.SetText(raw)
	case *IntegerControl:
		v, err := parseInt(raw)
		if err != nil {
			return err
		}
		return ctrl.Set(v)
	case *Integer64Control:
		v, err := parseInt(raw)
		if err != nil {
			return err
		}
		return ctrl.Set(v)
	case *U8Control:
		v, err := parseInt(raw)
		if err != nil {
			return err
		}
		return ctrl.Set(v)
	case *U16Control:
		v, err := parseInt(raw)
		if err != nil {
			return err
		}
		return ctrl.Set(v)
	case *U32Control:
		v, err := parseInt(raw)
		if err != nil {
			return err
		}
		return ctrl.Set(v)
	case *MenuControl:
		v, err := parseInt(raw)
		if err != nil {
			return err
		}
		return ctrl.Set(v)
	case *IntegerMenuControl:
		v, err := parseInt(raw)
		if err != nil {
			return err
		}
		return ctrl.Set(v)
	case *ButtonControl:
		return ctrl.Push()
	default:
		return kindErr(ErrTypeError, nil, "control has no settable value")
	}
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, kindErr(ErrTypeError, err, "%q is not an integer", s)
	}
	return v, nil
}

// Verify reads back every registered control and fails (DeviceStateError)
// on the first one whose current value does not match cfg's snapshot,
// compared case-insensitively as strings.
func (cfg *Config) Verify(dev *Device) error {
	for name, want := range cfg.Controls {
		ctrl, err := dev.Controls().ByName(name)
		if err != nil {
			continue
		}
		got, err := controlValueString(ctrl)
		if err != nil {
			continue
		}
		if !strings.EqualFold(got, want) {
			return kindErr(ErrDeviceState, nil, "device: config: verify: %s: want %q, got %q", name, want, got)
		}
	}
	return nil
}

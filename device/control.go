package device

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kestrelcam/v4lcap/internal/logging"
	"github.com/kestrelcam/v4lcap/v4l2"
	"go.uber.org/zap"
)

var parenRE = regexp.MustCompile(`\([^)]*\)`)

// canonicalName derives the registry lookup key for a kernel control name:
// lower-cased, parenthesized asides stripped, runs of whitespace collapsed
// to a single underscore.
func canonicalName(name string) string {
	name = strings.ToLower(name)
	name = parenRE.ReplaceAllString(name, "")
	fields := strings.Fields(name)
	return strings.Join(fields, "_")
}

// Control is the common interface every control variant satisfies. Value
// access is variant-specific (IntegerControl.Get/Set, MenuControl.Get/Set,
// ButtonControl.Push, ...); Control itself only exposes identity.
type Control interface {
	ID() v4l2.CtrlID
	Name() string
	CanonicalName() string
	Class() v4l2.CtrlClass
	Flags() uint32
	Writable() bool
	kind() v4l2.CtrlType
}

type controlBase struct {
	fd       uintptr
	registry *ControlRegistry
	desc     v4l2.ControlDescriptor
	canon    string
}

func (c *controlBase) ID() v4l2.CtrlID        { return c.desc.ID }
func (c *controlBase) Name() string           { return c.desc.Name }
func (c *controlBase) CanonicalName() string  { return c.canon }
func (c *controlBase) Class() v4l2.CtrlClass  { return c.desc.Class }
func (c *controlBase) Flags() uint32          { return c.desc.Flags }
func (c *controlBase) Writable() bool         { return !v4l2.NotWritable(c.desc.Flags) }
func (c *controlBase) kind() v4l2.CtrlType    { return c.desc.Type }

func (c *controlBase) setFD(fd uintptr) { c.fd = fd }

func (c *controlBase) notWritable() error {
	if !c.Writable() {
		return kindErr(ErrPrecondition, nil, "control %s: not writable", c.canon)
	}
	return nil
}

// clip applies registry clipping policy to a numeric value against
// [min, max]; with clipping disabled it returns ErrOutOfRange instead.
func (c *controlBase) clip(v, min, max int64) (int64, error) {
	if v >= min && v <= max {
		return v, nil
	}
	if !c.registry.clipping {
		return 0, kindErr(ErrOutOfRange, nil, "control %s: value %d outside [%d, %d]", c.canon, v, min, max)
	}
	if v < min {
		return min, nil
	}
	return max, nil
}

// IntegerControl is a 32-bit ranged numeric control (V4L2_CTRL_TYPE_INTEGER).
type IntegerControl struct{ controlBase }

func (c *IntegerControl) Minimum() int64 { return c.desc.Minimum }
func (c *IntegerControl) Maximum() int64 { return c.desc.Maximum }
func (c *IntegerControl) Step() int64    { return c.desc.Step }
func (c *IntegerControl) Default() int64 { return c.desc.Default }

func (c *IntegerControl) Get() (int64, error) {
	v, err := v4l2.GetControlValue(c.fd, c.desc.ID)
	return int64(v), err
}

func (c *IntegerControl) Set(v int64) error {
	if err := c.notWritable(); err != nil {
		return err
	}
	v, err := c.clip(v, c.desc.Minimum, c.desc.Maximum)
	if err != nil {
		return err
	}
	return v4l2.SetControlValue(c.fd, c.desc.ID, int32(v))
}

// Increase adds n*Step() to the control's current value and writes the
// result back through the registry's clipping policy.
func (c *IntegerControl) Increase(n int64) error { return c.step(n) }

// Decrease subtracts n*Step() from the control's current value and writes
// the result back through the registry's clipping policy.
func (c *IntegerControl) Decrease(n int64) error { return c.step(-n) }

func (c *IntegerControl) step(n int64) error {
	v, err := c.Get()
	if err != nil {
		return err
	}
	return c.Set(v + n*c.desc.Step)
}

// Integer64Control is a 64-bit ranged numeric control.
type Integer64Control struct{ controlBase }

func (c *Integer64Control) Minimum() int64 { return c.desc.Minimum }
func (c *Integer64Control) Maximum() int64 { return c.desc.Maximum }
func (c *Integer64Control) Default() int64 { return c.desc.Default }

func (c *Integer64Control) Get() (int64, error) {
	return v4l2.GetControlValue64(c.fd, c.desc.ID, c.desc.Class)
}

func (c *Integer64Control) Set(v int64) error {
	if err := c.notWritable(); err != nil {
		return err
	}
	v, err := c.clip(v, c.desc.Minimum, c.desc.Maximum)
	if err != nil {
		return err
	}
	return v4l2.SetControlValue64(c.fd, c.desc.ID, c.desc.Class, v)
}

// Increase adds n*Step() to the control's current value and writes the
// result back.
func (c *Integer64Control) Increase(n int64) error { return c.step(n) }

// Decrease subtracts n*Step() from the control's current value and writes
// the result back.
func (c *Integer64Control) Decrease(n int64) error { return c.step(-n) }

func (c *Integer64Control) step(n int64) error {
	v, err := c.Get()
	if err != nil {
		return err
	}
	return c.Set(v + n*c.desc.Step)
}

// u8u16u32Control backs U8Control/U16Control/U32Control; all three share
// the same extended-control wire path and only differ by declared width.
type u8u16u32Control struct{ controlBase }

func (c *u8u16u32Control) Minimum() int64 { return c.desc.Minimum }
func (c *u8u16u32Control) Maximum() int64 { return c.desc.Maximum }
func (c *u8u16u32Control) Default() int64 { return c.desc.Default }

func (c *u8u16u32Control) Get() (int64, error) {
	return v4l2.GetControlValue64(c.fd, c.desc.ID, c.desc.Class)
}

func (c *u8u16u32Control) Set(v int64) error {
	if err := c.notWritable(); err != nil {
		return err
	}
	v, err := c.clip(v, c.desc.Minimum, c.desc.Maximum)
	if err != nil {
		return err
	}
	return v4l2.SetControlValue64(c.fd, c.desc.ID, c.desc.Class, v)
}

// Increase adds n*Step() to the control's current value and writes the
// result back.
func (c *u8u16u32Control) Increase(n int64) error { return c.step(n) }

// Decrease subtracts n*Step() from the control's current value and writes
// the result back.
func (c *u8u16u32Control) Decrease(n int64) error { return c.step(-n) }

func (c *u8u16u32Control) step(n int64) error {
	v, err := c.Get()
	if err != nil {
		return err
	}
	return c.Set(v + n*c.desc.Step)
}

// U8Control is an array/scalar 8-bit extended control.
type U8Control struct{ u8u16u32Control }

// U16Control is a 16-bit extended control.
type U16Control struct{ u8u16u32Control }

// U32Control is a 32-bit extended control.
type U32Control struct{ u8u16u32Control }

// BooleanControl is a V4L2_CTRL_TYPE_BOOLEAN control. Set takes a bool;
// SetText accepts the usual textual truthy/falsy literals, so config
// files and CLI flags can write "on"/"off", "yes"/"no", "1"/"0".
type BooleanControl struct{ controlBase }

func (c *BooleanControl) Default() bool { return c.desc.Default != 0 }

func (c *BooleanControl) Get() (bool, error) {
	v, err := v4l2.GetControlValue(c.fd, c.desc.ID)
	return v != 0, err
}

func (c *BooleanControl) Set(v bool) error {
	if err := c.notWritable(); err != nil {
		return err
	}
	var i int32
	if v {
		i = 1
	}
	return v4l2.SetControlValue(c.fd, c.desc.ID, i)
}

var trueLiterals = map[string]bool{"1": true, "true": true, "on": true, "yes": true, "enable": true}
var falseLiterals = map[string]bool{"0": true, "false": true, "off": true, "no": true, "disable": true}

// SetText coerces a textual literal into a bool and applies it.
func (c *BooleanControl) SetText(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case trueLiterals[s]:
		return c.Set(true)
	case falseLiterals[s]:
		return c.Set(false)
	default:
		return kindErr(ErrTypeError, nil, "control %s: %q is not a boolean literal", c.canon, s)
	}
}

// MenuControl is a V4L2_CTRL_TYPE_MENU control; items carry display names.
type MenuControl struct {
	controlBase
	items []v4l2.MenuItem
}

func (c *MenuControl) Items() []v4l2.MenuItem { return c.items }
func (c *MenuControl) Default() int64         { return c.desc.Default }

func (c *MenuControl) Get() (int64, error) {
	v, err := v4l2.GetControlValue(c.fd, c.desc.ID)
	return int64(v), err
}

func (c *MenuControl) Set(index int64) error {
	if err := c.notWritable(); err != nil {
		return err
	}
	found := false
	for _, it := range c.items {
		if it.Index == index {
			found = true
			break
		}
	}
	if !found {
		return kindErr(ErrOutOfRange, nil, "control %s: index %d not a valid menu entry", c.canon, index)
	}
	return v4l2.SetControlValue(c.fd, c.desc.ID, int32(index))
}

// SetByName sets the control to the menu entry whose Name matches name.
func (c *MenuControl) SetByName(name string) error {
	for _, it := range c.items {
		if it.Name == name {
			return c.Set(it.Index)
		}
	}
	return kindErr(ErrNotFound, nil, "control %s: menu entry %q not found", c.canon, name)
}

// IntegerMenuControl is a V4L2_CTRL_TYPE_INTEGER_MENU control; items carry
// integer values instead of names.
type IntegerMenuControl struct {
	controlBase
	items []v4l2.MenuItem
}

func (c *IntegerMenuControl) Items() []v4l2.MenuItem { return c.items }

func (c *IntegerMenuControl) Get() (int64, error) {
	v, err := v4l2.GetControlValue(c.fd, c.desc.ID)
	return int64(v), err
}

func (c *IntegerMenuControl) Set(index int64) error {
	if err := c.notWritable(); err != nil {
		return err
	}
	for _, it := range c.items {
		if it.Index == index {
			return v4l2.SetControlValue(c.fd, c.desc.ID, int32(index))
		}
	}
	return kindErr(ErrOutOfRange, nil, "control %s: index %d not a valid menu entry", c.canon, index)
}

// ButtonControl is a V4L2_CTRL_TYPE_BUTTON control: write-only, momentary.
type ButtonControl struct{ controlBase }

// Push writes the control, triggering the device action it represents.
func (c *ButtonControl) Push() error {
	if err := c.notWritable(); err != nil {
		return err
	}
	return v4l2.SetControlValue(c.fd, c.desc.ID, 0)
}

// GenericControl is the fallback for control types this package does not
// give a dedicated variant to (string, bitmask, compound types); it
// exposes the raw descriptor only.
type GenericControl struct{ controlBase }

func newControl(fd uintptr, registry *ControlRegistry, desc v4l2.ControlDescriptor) (Control, error) {
	base := controlBase{fd: fd, registry: registry, desc: desc, canon: canonicalName(desc.Name)}
	switch desc.Type {
	case v4l2.CtrlTypeInteger:
		return &IntegerControl{base}, nil
	case v4l2.CtrlTypeInteger64:
		return &Integer64Control{base}, nil
	case v4l2.CtrlTypeU8:
		return &U8Control{u8u16u32Control{base}}, nil
	case v4l2.CtrlTypeU16:
		return &U16Control{u8u16u32Control{base}}, nil
	case v4l2.CtrlTypeU32:
		return &U32Control{u8u16u32Control{base}}, nil
	case v4l2.CtrlTypeBoolean:
		return &BooleanControl{base}, nil
	case v4l2.CtrlTypeButton:
		return &ButtonControl{base}, nil
	case v4l2.CtrlTypeMenu:
		items, err := v4l2.EnumMenu(fd, desc.ID, desc.Type, desc.Minimum, desc.Maximum, desc.Step)
		if err != nil {
			return nil, fmt.Errorf("device: enumerate menu for %s: %w", base.canon, err)
		}
		return &MenuControl{controlBase: base, items: items}, nil
	case v4l2.CtrlTypeIntegerMenu:
		items, err := v4l2.EnumMenu(fd, desc.ID, desc.Type, desc.Minimum, desc.Maximum, desc.Step)
		if err != nil {
			return nil, fmt.Errorf("device: enumerate integer menu for %s: %w", base.canon, err)
		}
		return &IntegerMenuControl{controlBase: base, items: items}, nil
	default:
		return &GenericControl{base}, nil
	}
}

// ControlRegistry indexes every control a device reported during
// probeInfo, by both numeric id and canonical name, preserving the order
// the kernel enumerated them in.
type ControlRegistry struct {
	fd       uintptr
	clipping bool

	order  []Control
	byID   map[v4l2.CtrlID]Control
	byName map[string]Control
}

func newControlRegistry(fd uintptr, descs []v4l2.ControlDescriptor) (*ControlRegistry, error) {
	r := &ControlRegistry{
		fd:       fd,
		clipping: true,
		byID:     map[v4l2.CtrlID]Control{},
		byName:   map[string]Control{},
	}
	for _, desc := range descs {
		ctrl, err := newControl(fd, r, desc)
		if err != nil {
			return nil, err
		}
		r.order = append(r.order, ctrl)
		r.byID[desc.ID] = ctrl
		r.byName[ctrl.CanonicalName()] = ctrl
	}
	return r, nil
}

// rebind repoints the registry and every control it holds at a newly
// opened fd, used when a Device is closed and later re-opened without
// re-probing Info/controls.
func (r *ControlRegistry) rebind(fd uintptr) {
	r.fd = fd
	for _, c := range r.order {
		if rb, ok := c.(interface{ setFD(uintptr) }); ok {
			rb.setFD(fd)
		}
	}
}

// SetClipping toggles whether numeric Set calls clip out-of-range values
// to the nearest bound (true, the default) or reject them with
// ErrOutOfRange (false).
func (r *ControlRegistry) SetClipping(enabled bool) { r.clipping = enabled }

// ByID looks a control up by its kernel id.
func (r *ControlRegistry) ByID(id v4l2.CtrlID) (Control, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, kindErr(ErrNotFound, nil, "control id %#x not found", id)
	}
	return c, nil
}

// ByName looks a control up by its canonical name.
func (r *ControlRegistry) ByName(name string) (Control, error) {
	c, ok := r.byName[canonicalName(name)]
	if !ok {
		return nil, kindErr(ErrNotFound, nil, "control %q not found", name)
	}
	return c, nil
}

// All returns every control in kernel enumeration order.
func (r *ControlRegistry) All() []Control {
	return append([]Control(nil), r.order...)
}

// WithClass returns every control belonging to class, in enumeration
// order.
func (r *ControlRegistry) WithClass(class v4l2.CtrlClass) []Control {
	var out []Control
	for _, c := range r.order {
		if c.Class() == class {
			out = append(out, c)
		}
	}
	return out
}

// UsedClasses returns the distinct control classes present in the
// registry, in first-seen order.
func (r *ControlRegistry) UsedClasses() []v4l2.CtrlClass {
	var classes []v4l2.CtrlClass
	seen := map[v4l2.CtrlClass]bool{}
	for _, c := range r.order {
		if !seen[c.Class()] {
			seen[c.Class()] = true
			classes = append(classes, c.Class())
		}
	}
	return classes
}

// SetToDefault writes every writable control back to the value
// QUERY_EXT_CTRL reported as its default, on a best-effort basis:
// per-control failures are logged and swallowed so a bulk reset always
// completes.
func (r *ControlRegistry) SetToDefault() {
	for _, c := range r.order {
		if !c.Writable() {
			continue
		}
		var err error
		switch ctrl := c.(type) {
		case *IntegerControl:
			err = ctrl.Set(ctrl.Default())
		case *Integer64Control:
			err = ctrl.Set(ctrl.desc.Default)
		case *BooleanControl:
			err = ctrl.Set(ctrl.desc.Default != 0)
		case *MenuControl:
			err = ctrl.Set(ctrl.desc.Default)
		case *IntegerMenuControl:
			err = ctrl.Set(ctrl.desc.Default)
		case *U8Control:
			err = ctrl.Set(ctrl.desc.Default)
		case *U16Control:
			err = ctrl.Set(ctrl.desc.Default)
		case *U32Control:
			err = ctrl.Set(ctrl.desc.Default)
		default:
			continue
		}
		if err != nil {
			logging.Logger.Warn("reset to default failed",
				zap.String("control", c.CanonicalName()),
				zap.Error(err))
		}
	}
}

package main

import (
	"fmt"
	"strconv"

	"github.com/kestrelcam/v4lcap/device"
)

// controlValueText renders a control's current value as text, the same
// shape setControlText accepts, so get-ctrl/set-ctrl/save/load round-trip
// through one convention.
func controlValueText(c device.Control) (string, error) {
	switch ctrl := c.(type) {
	case *device.IntegerControl:
		v, err := ctrl.Get()
		return strconv.FormatInt(v, 10), err
	case *device.Integer64Control:
		v, err := ctrl.Get()
		return strconv.FormatInt(v, 10), err
	case *device.U8Control:
		v, err := ctrl.Get()
		return strconv.FormatInt(v, 10), err
	case *device.U16Control:
		v, err := ctrl.Get()
		return strconv.FormatInt(v, 10), err
	case *device.U32Control:
		v, err := ctrl.Get()
		return strconv.FormatInt(v, 10), err
	case *device.BooleanControl:
		v, err := ctrl.Get()
		return strconv.FormatBool(v), err
	case *device.MenuControl:
		v, err := ctrl.Get()
		return strconv.FormatInt(v, 10), err
	case *device.IntegerMenuControl:
		v, err := ctrl.Get()
		return strconv.FormatInt(v, 10), err
	default:
		return "", fmt.Errorf("control %s has no readable value", c.CanonicalName())
	}
}

// setControlText parses raw against the concrete type of c and writes it.
func setControlText(c device.Control, raw string) error {
	switch ctrl := c.(type) {
	case *device.BooleanControl:
		return ctrl.SetText(raw)
	case *device.ButtonControl:
		return ctrl.Push()
	case *device.IntegerControl, *device.Integer64Control, *device.U8Control, *device.U16Control, *device.U32Control, *device.MenuControl, *device.IntegerMenuControl:
		v, err := strconv.ParseInt(raw, 0, 64)
		if err != nil {
			return fmt.Errorf("%q is not an integer: %w", raw, err)
		}
		return setInt(ctrl, v)
	default:
		return fmt.Errorf("control %s is not settable", c.CanonicalName())
	}
}

func setInt(c device.Control, v int64) error {
	switch ctrl := c.(type) {
	case *device.IntegerControl:
		return ctrl.Set(v)
	case *device.Integer64Control:
		return ctrl.Set(v)
	case *device.U8Control:
		return ctrl.Set(v)
	case *device.U16Control:
		return ctrl.Set(v)
	case *device.U32Control:
		return ctrl.Set(v)
	case *device.MenuControl:
		return ctrl.Set(v)
	case *device.IntegerMenuControl:
		return ctrl.Set(v)
	default:
		return fmt.Errorf("control %s has no integer setter", c.CanonicalName())
	}
}

// controlDefaultText renders a control's declared default, for reset-ctrl.
func controlDefaultText(c device.Control) (string, error) {
	switch ctrl := c.(type) {
	case *device.IntegerControl:
		return strconv.FormatInt(ctrl.Default(), 10), nil
	case *device.Integer64Control:
		return strconv.FormatInt(ctrl.Default(), 10), nil
	case *device.U8Control:
		return strconv.FormatInt(ctrl.Default(), 10), nil
	case *device.U16Control:
		return strconv.FormatInt(ctrl.Default(), 10), nil
	case *device.U32Control:
		return strconv.FormatInt(ctrl.Default(), 10), nil
	case *device.BooleanControl:
		return strconv.FormatBool(ctrl.Default()), nil
	case *device.MenuControl:
		return strconv.FormatInt(ctrl.Default(), 10), nil
	default:
		return "", fmt.Errorf("control %s has no reset default exposed", c.CanonicalName())
	}
}

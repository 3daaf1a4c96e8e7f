package device

import (
	"testing"

	"github.com/kestrelcam/v4lcap/v4l2"
	"github.com/kestrelcam/v4lcap/v4l2/v4l2test"
)

func TestCanonicalName(t *testing.T) {
	cases := map[string]string{
		"Brightness":           "brightness",
		"White Balance (Auto)": "white_balance",
		"  Gain   Control  ":   "gain_control",
		"Power Line Frequency": "power_line_frequency",
	}
	for in, want := range cases {
		if got := canonicalName(in); got != want {
			t.Errorf("canonicalName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBooleanCoercion(t *testing.T) {
	k := newMockKernel()
	k.Controls = append(k.Controls, &v4l2test.ControlFixture{
		ID:      0x0098090c,
		Name:    "Horizontal Flip",
		Class:   v4l2.CtrlClassUser,
		Type:    v4l2.CtrlTypeBoolean,
		Minimum: 0,
		Maximum: 1,
		Step:    1,
		Default: 0,
	})
	dev := openFake(t, k)

	ctrl, err := dev.Controls().ByName("horizontal_flip")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	flip, ok := ctrl.(*BooleanControl)
	if !ok {
		t.Fatalf("control is %T, want *BooleanControl", ctrl)
	}

	for _, tc := range []struct {
		text string
		want bool
	}{
		{"1", true}, {"true", true}, {"on", true}, {"YES", true},
		{"0", false}, {"false", false}, {"off", false}, {"No", false},
	} {
		if err := flip.SetText(tc.text); err != nil {
			t.Fatalf("SetText(%q): %v", tc.text, err)
		}
		got, err := flip.Get()
		if err != nil || got != tc.want {
			t.Fatalf("after SetText(%q): Get() = %v, %v; want %v, nil", tc.text, got, err, tc.want)
		}
	}

	if err := flip.SetText("maybe"); err == nil || !isKind(err, ErrTypeError) {
		t.Fatalf("SetText(maybe) = %v, want ErrTypeError", err)
	}
}

func TestControlClassGrouping(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	classes := dev.Controls().UsedClasses()
	if len(classes) != 1 || classes[0] != v4l2.CtrlClassUser {
		t.Fatalf("UsedClasses() = %v, want [CtrlClassUser]", classes)
	}
	withClass := dev.Controls().WithClass(v4l2.CtrlClassUser)
	if len(withClass) != len(dev.Controls().All()) {
		t.Fatalf("WithClass(User) returned %d controls, want %d", len(withClass), len(dev.Controls().All()))
	}
}

func TestIntegerDiscreteStepping(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	ctrl, err := dev.Controls().ByName("brightness")
	if err != nil {
		t.Fatalf("ByName(brightness): %v", err)
	}
	brightness := ctrl.(*IntegerControl)
	if err := brightness.Set(10); err != nil {
		t.Fatal(err)
	}

	if err := brightness.Increase(3); err != nil {
		t.Fatalf("Increase(3): %v", err)
	}
	if got, err := brightness.Get(); err != nil || got != 13 {
		t.Fatalf("Get() after Increase(3) = %d, %v; want 13, nil", got, err)
	}

	if err := brightness.Decrease(5); err != nil {
		t.Fatalf("Decrease(5): %v", err)
	}
	if got, err := brightness.Get(); err != nil || got != 8 {
		t.Fatalf("Get() after Decrease(5) = %d, %v; want 8, nil", got, err)
	}

	// Stepping past a bound clips the same way a direct Set does.
	if err := brightness.Increase(1000); err != nil {
		t.Fatalf("Increase(1000): %v", err)
	}
	if got, err := brightness.Get(); err != nil || got != 64 {
		t.Fatalf("Get() after Increase(1000) = %d, %v; want 64, nil", got, err)
	}
}

func TestSetToDefault(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	ctrl, err := dev.Controls().ByName("brightness")
	if err != nil {
		t.Fatal(err)
	}
	brightness := ctrl.(*IntegerControl)
	if err := brightness.Set(33); err != nil {
		t.Fatal(err)
	}

	dev.Controls().SetToDefault()

	if got, err := brightness.Get(); err != nil || got != 0 {
		t.Fatalf("Get() after SetToDefault = %d, %v; want 0, nil", got, err)
	}
}

func TestControlNotFound(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	if _, err := dev.Controls().ByName("does_not_exist"); err == nil {
		t.Fatal("expected ErrNotFound for unknown control name")
	} else if !isKind(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if _, err := dev.Controls().ByID(0xdeadbeef); err == nil {
		t.Fatal("expected ErrNotFound for unknown control id")
	}
}

func isKind(err error, kind error) bool {
	ke, ok := err.(*KindError)
	return ok && ke.Kind == kind
}

package device

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.conf")
	if err := os.WriteFile(path, []byte("[device]\nnotakeyvalue\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !isKind(err, ErrConfiguration) {
		t.Fatalf("Load(malformed) = %v, want ErrConfiguration", err)
	}
}

func TestConfigLoadKeyOutsideSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.conf")
	if err := os.WriteFile(path, []byte("driver = mock\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !isKind(err, ErrConfiguration) {
		t.Fatalf("Load(key outside section) = %v, want ErrConfiguration", err)
	}
}

func TestConfigValidatePedanticMismatch(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	cfg, err := Acquire(dev)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Card = "a different camera"
	if err := cfg.Validate(dev, true); err == nil || !isKind(err, ErrCompatibility) {
		t.Fatalf("Validate(pedantic) with mismatched card = %v, want ErrCompatibility", err)
	}
	if err := cfg.Validate(dev, false); err != nil {
		t.Fatalf("Validate(non-pedantic) should ignore identity mismatch: %v", err)
	}
}

func TestConfigApplyUnknownControl(t *testing.T) {
	k := newMockKernel()
	dev := openFake(t, k)

	cfg := &Config{Controls: map[string]string{"no_such_control": "1"}}
	if err := cfg.Apply(dev, 1); err == nil || !isKind(err, ErrConfiguration) {
		t.Fatalf("Apply(unknown control) = %v, want ErrConfiguration", err)
	}
}

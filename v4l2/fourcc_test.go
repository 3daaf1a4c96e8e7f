package v4l2

import "testing"

func TestFourCCRoundTrip(t *testing.T) {
	code := FourCC('M', 'J', 'P', 'G')
	if code != PixelFmtMJPEG {
		t.Fatalf("FourCC('M','J','P','G') = %#x, want PixelFmtMJPEG (%#x)", code, PixelFmtMJPEG)
	}
	if got := HumanStr(code); got != "MJPG" {
		t.Fatalf("HumanStr(%#x) = %q, want MJPG", code, got)
	}
}

func TestHumanStrNonPrintable(t *testing.T) {
	got := HumanStr(0x00000001)
	for _, r := range got {
		if r != '.' {
			t.Fatalf("HumanStr(1) = %q, want all '.'", got)
		}
	}
}

func TestIsKnownPixFmt(t *testing.T) {
	if !IsKnownPixFmt(PixelFmtRGB24) {
		t.Error("RGB24 should be known")
	}
	if IsKnownPixFmt(0x12345678) {
		t.Error("arbitrary code should not be known")
	}
}

func TestIsYUVEncoded(t *testing.T) {
	if !IsYUVEncoded(PixelFmtYUYV) {
		t.Error("YUYV should be YUV-encoded")
	}
	if IsYUVEncoded(PixelFmtRGB24) {
		t.Error("RGB24 should not be YUV-encoded")
	}
}

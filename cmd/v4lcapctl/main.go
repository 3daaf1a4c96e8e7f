// Command v4lcapctl is a small reference CLI over package device: list
// capture-capable nodes, inspect or write individual controls, and save or
// load a device configuration. It exists to exercise the library end to
// end, not as a production capture tool.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/kestrelcam/v4lcap/device"
	"github.com/kestrelcam/v4lcap/internal/logging"
)

var (
	errColor = color.New(color.FgRed)
	hdrColor = color.New(color.FgCyan, color.Bold)
	dimColor = color.New(color.FgHiBlack)
)

func main() {
	flag.Parse()

	if flagHelp {
		fmt.Print(helpString)
		return
	}

	if err := logging.Init(flagLogLevel, false); err != nil {
		fail("init logging: %v", err)
	}

	if flagListDevices {
		listDevices()
		return
	}

	dev, err := openTarget(flagDevice)
	if err != nil {
		fail("open %s: %v", flagDevice, err)
	}
	defer dev.Close()

	dev.Controls().SetClipping(flagClipping)

	switch {
	case flagGetCtrl != "":
		getCtrl(dev, flagGetCtrl)
	case flagSetCtrl != "":
		setCtrl(dev, flagSetCtrl)
	case flagResetCtrl != "":
		resetCtrl(dev, flagResetCtrl)
	case flagResetAll:
		dev.Controls().SetToDefault()
	case flagSave != "":
		save(dev, flagSave)
	case flagLoad != "":
		load(dev, flagLoad)
	default:
		printInfo(dev)
	}
}

func openTarget(target string) (*device.Device, error) {
	if n, err := strconv.Atoi(target); err == nil {
		return device.FromID(n)
	}
	return device.Open(target)
}

func listDevices() {
	paths, err := device.CaptureDevices()
	if err != nil {
		fail("list devices: %v", err)
	}
	if len(paths) == 0 {
		fmt.Println("no capture devices found")
		return
	}
	for _, path := range paths {
		hdrColor.Println(path)
	}
}

func printInfo(dev *device.Device) {
	info := dev.Info()
	hdrColor.Printf("%s\n", dev.Path())
	fmt.Printf("driver:   %s\n", info.Driver)
	fmt.Printf("card:     %s\n", info.Card)
	fmt.Printf("bus:      %s\n", info.BusInfo)
	fmt.Printf("version:  %s\n", info.Version.String())

	format, err := dev.GetFormat()
	if err == nil {
		fmt.Printf("format:   %dx%d\n", format.Width, format.Height)
	}

	dimColor.Println("controls:")
	for _, c := range dev.Controls().All() {
		fmt.Printf("  %-24s id=%#08x\n", c.CanonicalName(), c.ID())
	}
}

func getCtrl(dev *device.Device, name string) {
	ctrl, err := dev.Controls().ByName(name)
	if err != nil {
		fail("get-ctrl: %v", err)
	}
	val, err := controlValueText(ctrl)
	if err != nil {
		fail("get-ctrl %s: %v", name, err)
	}
	fmt.Println(val)
}

func setCtrl(dev *device.Device, spec string) {
	name, raw, ok := strings.Cut(spec, "=")
	if !ok {
		fail("set-ctrl: expected NAME=VALUE, got %q", spec)
	}
	ctrl, err := dev.Controls().ByName(name)
	if err != nil {
		fail("set-ctrl: %v", err)
	}
	if err := setControlText(ctrl, raw); err != nil {
		fail("set-ctrl %s: %v", name, err)
	}
}

func resetCtrl(dev *device.Device, name string) {
	ctrl, err := dev.Controls().ByName(name)
	if err != nil {
		fail("reset-ctrl: %v", err)
	}
	defVal, err := controlDefaultText(ctrl)
	if err != nil {
		fail("reset-ctrl %s: %v", name, err)
	}
	if err := setControlText(ctrl, defVal); err != nil {
		fail("reset-ctrl %s: %v", name, err)
	}
}

func save(dev *device.Device, path string) {
	cfg, err := device.Acquire(dev)
	if err != nil {
		fail("save: %v", err)
	}
	// Acquire already derived Legacy from the device's actual control API;
	// --legacy only overrides it when the caller explicitly passed the flag.
	if f := flag.Lookup("legacy"); f != nil && f.Changed {
		cfg.Legacy = flagLegacy
	}
	if err := cfg.Save(path); err != nil {
		fail("save: %v", err)
	}
}

func load(dev *device.Device, path string) {
	cfg, err := device.Load(path)
	if err != nil {
		fail("load: %v", err)
	}
	if err := cfg.Validate(dev, flagPedantic); err != nil {
		fail("load: %v", err)
	}
	if err := cfg.Apply(dev, 2); err != nil {
		fail("load: %v", err)
	}
	if err := cfg.Verify(dev); err != nil {
		fail("load: %v", err)
	}
}

func fail(format string, args ...any) {
	errColor.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

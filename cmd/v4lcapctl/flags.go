package main

import (
	flag "github.com/spf13/pflag"
)

var (
	flagDevice      string
	flagListDevices bool
	flagGetCtrl     string
	flagSetCtrl     string
	flagResetCtrl   string
	flagResetAll    bool
	flagSave        string
	flagLoad        string
	flagLegacy      bool
	flagClipping    bool
	flagPedantic    bool
	flagLogLevel    string
	flagHelp        bool
)

func init() {
	flag.StringVarP(&flagDevice, "device", "d", "0", "Device index N or path (default 0)")
	flag.BoolVar(&flagListDevices, "list-devices", false, "List capture-capable device nodes and exit")
	flag.StringVar(&flagGetCtrl, "get-ctrl", "", "Print the named control's current value")
	flag.StringVar(&flagSetCtrl, "set-ctrl", "", "Set a control: name=value")
	flag.StringVar(&flagResetCtrl, "reset-ctrl", "", "Reset the named control to its default")
	flag.BoolVar(&flagResetAll, "reset-all", false, "Reset every writable control to its default")
	flag.StringVar(&flagSave, "save", "", "Save device identity and control values to PATH")
	flag.StringVar(&flagLoad, "load", "", "Load and apply a configuration from PATH")
	flag.BoolVar(&flagLegacy, "legacy", false, "Mark saved configuration as legacy-format")
	flag.BoolVar(&flagClipping, "clipping", true, "Clip out-of-range control writes instead of rejecting them")
	flag.BoolVar(&flagPedantic, "pedantic", false, "Require driver/card/version match when loading a configuration")
	flag.StringVar(&flagLogLevel, "log-level", "warn", "Logging verbosity: debug, info, warn, error")
	flag.BoolVarP(&flagHelp, "help", "h", false, "Print usage information and exit")
}

const helpString = `v4lcapctl - inspect and configure a V4L2 capture device

Usage: v4lcapctl [OPTION]...

  -d, --device=N|PATH      Device index or path (default 0)
      --list-devices       List capture-capable device nodes and exit

  --get-ctrl=NAME          Print a control's current value
  --set-ctrl=NAME=VALUE    Set a control
  --reset-ctrl=NAME        Reset a control to its default
  --reset-all              Reset every writable control to its default

  --save=PATH              Save device identity and controls to PATH
  --load=PATH              Load and apply a configuration from PATH
  --legacy                 Mark a saved configuration as legacy-format
  --clipping               Clip out-of-range writes (default: on)
  --pedantic               Require driver/card/version match on load

  --log-level=LEVEL        debug, info, warn, error (default: warn)
  -h, --help               Print this message and exit
`

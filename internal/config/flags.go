package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagNoShadows = flag.Bool("no-shadows", false, "Create renderables without shadow casting/receiving")
	flagHidden    = flag.Bool("hidden", false, "Create a hidden window (GL context only)")
	flagWidth     = flag.Int("width", 0, "Window width")
	flagHeight    = flag.Int("height", 0, "Window height")
	flagBase      = flag.String("base", "", "Base directory for relative resource URIs")
	flagAnim      = flag.Int("anim", -2, "Animation index to play (-1 = all)")
	flagSpeed     = flag.Float64("speed", 0, "Animation playback speed")
	flagSnapshot  = flag.String("snapshot", "", "Render one frame offscreen to this PNG and exit")
	flagAt        = flag.Float64("at", -1, "Animation time of the snapshot (seconds)")
	flagWrite     = flag.String("write-config", "", "Write the effective config to this path (\"user\" for the user config dir, \"-\" for stdout) and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigPath returns the target of --write-config, if any.
func WriteConfigPath() string {
	return *flagWrite
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagNoShadows {
		cfg.Loader.CastShadows = false
		cfg.Loader.ReceiveShadows = false
	}
	if *flagHidden {
		cfg.Window.Hidden = true
	}
	if *flagWidth > 0 {
		cfg.Window.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Window.Height = *flagHeight
	}
	if *flagBase != "" {
		cfg.Resources.BasePath = *flagBase
	}
	if *flagAnim >= -1 {
		cfg.Playback.Animation = *flagAnim
	}
	if *flagSpeed > 0 {
		cfg.Playback.Speed = float32(*flagSpeed)
	}
	if *flagSnapshot != "" {
		cfg.Capture.Path = *flagSnapshot
	}
	if *flagAt >= 0 {
		cfg.Capture.Time = float32(*flagAt)
	}
}

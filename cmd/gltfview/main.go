// Package main is the entry point for the interactive glTF viewer.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/gltfio/internal/config"
	"github.com/Faultbox/gltfio/internal/logger"
	"github.com/Faultbox/gltfio/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	if path := config.WriteConfigPath(); path != "" {
		writeConfig(path)
		return
	}

	if len(config.Args()) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: gltfview [options] <file.gltf|file.glb>")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== gltfview ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	v, err := viewer.New(cfg, config.Args()[0])
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if cfg.Capture.Path != "" {
		if err := v.Snapshot(); err != nil {
			logger.Error("snapshot failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}

// writeConfig saves the effective config, defaults merged with file and
// flags, so it can be edited and reused.
func writeConfig(path string) {
	cfg, err := config.Load()
	if err == nil {
		if path == "user" {
			err = cfg.Save()
			path = config.UserConfigPath()
		} else {
			err = cfg.SaveTo(path)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if path != "-" {
		fmt.Fprintf(os.Stderr, "Config written to %s\n", path)
	}
}

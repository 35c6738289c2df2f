package main

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cfelab/isiis-prep/internal/config"
)

// commandContext resolves the configuration once and shares it across
// subcommands.
type commandContext struct {
	configFlag *string
	debugFlag  *bool

	cfg          *config.Config
	resolvedPath string
}

func newCommandContext(configFlag *string, debugFlag *bool) *commandContext {
	return &commandContext{configFlag: configFlag, debugFlag: debugFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}

	cfg, resolved, exists, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.resolvedPath = resolved

	applyLogLevel(cfg.Logging.Level, *c.debugFlag)
	log.WithFields(log.Fields{"path": resolved, "exists": exists}).Debug("Configuration resolved")

	return c.cfg, nil
}

func applyLogLevel(level string, debug bool) {
	if debug {
		log.SetLevel(log.DebugLevel)
		return
	}
	switch strings.ToLower(level) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}
}

// requirePath returns the flag value when set, the config value otherwise,
// and an error naming both when neither carries a path.
func requirePath(flagVal, cfgVal, flagName, cfgName string) (string, error) {
	if flagVal != "" {
		return flagVal, nil
	}
	if cfgVal != "" {
		return cfgVal, nil
	}
	return "", fmt.Errorf("%w: set --%s or %s in the config file", errMissingPath, flagName, cfgName)
}

var errMissingPath = errors.New("missing required path")

// intValue prefers an explicitly set flag over the config value.
func intValue(cmd *cobra.Command, name string, flagVal, cfgVal int) int {
	if cmd.Flags().Changed(name) {
		return flagVal
	}
	return cfgVal
}

// boolValue prefers an explicitly set flag over the config value.
func boolValue(cmd *cobra.Command, name string, flagVal, cfgVal bool) bool {
	if cmd.Flags().Changed(name) {
		return flagVal
	}
	return cfgVal
}

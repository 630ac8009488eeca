package main

import (
	"fmt"

	"github.com/alnah/go-mdslides/internal/yamlutil"
)

// runConfig prints the effective configuration as YAML: defaults, then the
// config file, then MDSLIDES_* variables.
func runConfig(args []string, env *Environment) error {
	var common commonFlags
	fs := newFlagSet("config", printConfigUsage, env.Stderr)
	fs.StringVarP(&common.config, "config", "c", "", "config file name or path")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}

	cfg, err := loadConfig(common, env)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	out, err := yamlutil.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = env.Stdout.Write(out)
	return err
}

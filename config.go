package main

import (
	"io/ioutil"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/mhbemani/minic/compiler"
	"github.com/ztrue/tracerr"
	"gopkg.in/yaml.v2"
)

const configFile = "minic.yaml"

// projectConfig is the contents of minic.yaml.
type projectConfig struct {
	Name string `yaml:"name"`
	// Optimize is a pointer so that an absent key keeps the default.
	Optimize    *bool  `yaml:"optimize,omitempty"`
	UnrollLimit int    `yaml:"unroll_limit,omitempty"`
	Requires    string `yaml:"requires,omitempty"`
	Clang       string `yaml:"clang,omitempty"`
}

func defaultConfig(name string) projectConfig {
	optimize := true
	return projectConfig{
		Name:        name,
		Optimize:    &optimize,
		UnrollLimit: compiler.DefaultOptions().UnrollLimit,
		Requires:    "^" + compiler.Version,
		Clang:       "clang",
	}
}

// loadConfig reads the configuration at path. A missing file is only an
// error if the path was asked for explicitly.
func loadConfig(path string, explicit bool) (projectConfig, error) {
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return projectConfig{}, nil
	}
	if err != nil {
		return projectConfig{}, tracerr.Wrap(err)
	}

	var doc projectConfig
	if err := yaml.UnmarshalStrict(data, &doc); err != nil {
		return projectConfig{}, tracerr.Errorf("%s: %v", path, err)
	}
	return doc, nil
}

// checkVersion verifies that version satisfies the requires constraint.
func (c projectConfig) checkVersion(version string) error {
	if c.Requires == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(c.Requires)
	if err != nil {
		return tracerr.Errorf("invalid requires constraint %q: %v", c.Requires, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return tracerr.Wrap(err)
	}
	if !constraint.Check(v) {
		return tracerr.Errorf("project %s requires minic %s, this is %s", c.Name, c.Requires, version)
	}
	return nil
}

func (c projectConfig) options() compiler.Options {
	opts := compiler.DefaultOptions()
	if c.Optimize != nil {
		opts.Optimize = *c.Optimize
	}
	if c.UnrollLimit != 0 {
		opts.UnrollLimit = c.UnrollLimit
	}
	return opts
}

func (c projectConfig) clang() string {
	if c.Clang == "" {
		return "clang"
	}
	return c.Clang
}

// writeDefaultConfig creates a configuration for a new project. It refuses
// to overwrite an existing file.
func writeDefaultConfig(path, name string) error {
	out, err := yaml.Marshal(defaultConfig(name))
	if err != nil {
		return tracerr.Wrap(err)
	}

	fi, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return tracerr.Wrap(err)
	}
	defer fi.Close()

	_, err = fi.Write(out)
	return tracerr.Wrap(err)
}

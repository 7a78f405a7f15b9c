// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"path"

	"github.com/awslabs/ar-wasm-taint/internal/funcutil"
	"gopkg.in/yaml.v3"
)

// Config holds the options and the taint tracking problems of one analysis
// session. To add elements to a config file, add fields to this struct.
// If some field is not defined in the config file, it will be empty/zero in
// the struct. Private fields are not populated from a yaml file, but computed
// after initialization.
type Config struct {
	Options `yaml:",inline"`

	sourceFile string

	// TaintTrackingProblems lists the taint tracking specifications
	TaintTrackingProblems []TaintSpec `yaml:"taint-tracking-problems"`
}

// TaintSpec contains the function identifiers that define a specific taint
// tracking problem
type TaintSpec struct {
	// Sources is the list of function identifiers whose call arguments are
	// marked tainted
	Sources []FuncIdentifier

	// Sinks is the list of function identifiers whose tainted call arguments
	// trigger a report
	Sinks []FuncIdentifier
}

// Options are the configuration options that do not define a taint tracking
// problem
type Options struct {
	// ReportsDir is the directory where flow report files are stored when
	// ReportFlows is true. If not set, a temporary directory is created next
	// to the config file.
	ReportsDir string `yaml:"reports-dir"`

	// ReportFlows specifies whether each source-to-sink flow should be
	// reported in a separate flow-*.out file in ReportsDir
	ReportFlows bool `yaml:"report-flows"`

	// MaxAlarms sets a limit for the number of sink alarms reported. If
	// MaxAlarms > 0, then at most MaxAlarms will be reported. Otherwise it is
	// ignored.
	MaxAlarms int `yaml:"max-alarms"`

	// LogLevel controls the verbosity of the tracker
	LogLevel int `yaml:"log-level"`

	// SilenceWarn suppresses warnings
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns an empty default config.
func NewDefault() *Config {
	return &Config{
		sourceFile:            "",
		TaintTrackingProblems: nil,
		Options: Options{
			ReportsDir:  "",
			ReportFlows: false,
			MaxAlarms:   0,
			LogLevel:    int(InfoLevel),
			SilenceWarn: false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file %s: %w", filename, err)
	}

	cfg.sourceFile = filename

	// If logLevel has not been specified (i.e. it is 0) set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	if cfg.ReportFlows {
		if err := setReportsDir(cfg, filename); err != nil {
			return nil, err
		}
	}

	logger := NewLogGroup(cfg)
	for _, tSpec := range cfg.TaintTrackingProblems {
		funcutil.MapInPlace(tSpec.Sources, compileMatchers)
		funcutil.MapInPlace(tSpec.Sinks, compileMatchers)
		warnUncompiledMatchers(logger, tSpec)
	}

	return cfg, nil
}

// warnUncompiledMatchers signals every identifier whose matchers did not
// compile. Matching still works for those, by plain string comparison, but a
// typo'd regex in a sources or sinks list should not degrade silently.
func warnUncompiledMatchers(logger *LogGroup, ts TaintSpec) {
	for _, fid := range ts.Sources {
		warnUncompiledFid(logger, fid, "source")
	}
	for _, fid := range ts.Sinks {
		warnUncompiledFid(logger, fid, "sink")
	}
}

func warnUncompiledFid(logger *LogGroup, fid FuncIdentifier, role string) {
	if fid.computed == nil {
		logger.Warnf("could not compile matchers for %s {module: %q, function: %q, index: %q}; matching it by plain string comparison",
			role, fid.Module, fid.Function, fid.Index)
	}
}

func setReportsDir(c *Config, filename string) error {
	if c.ReportsDir == "" {
		tmpdir, err := os.MkdirTemp(path.Dir(filename), "*-report")
		if err != nil {
			return fmt.Errorf("could not create temp dir for reports")
		}
		c.ReportsDir = tmpdir
		return nil
	}
	err := os.Mkdir(c.ReportsDir, 0750)
	if err != nil && !os.IsExist(err) {
		return fmt.Errorf("could not create directory %s", c.ReportsDir)
	}
	return nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// Below are functions used to query the configuration on specific facts

func (c Config) isSomeTaintSpecFid(fid FuncIdentifier, f func(t TaintSpec, fid FuncIdentifier) bool) bool {
	for _, x := range c.TaintTrackingProblems {
		if f(x, fid) {
			return true
		}
	}
	return false
}

// IsSomeSource returns true if the function identifier matches any source in
// the config
func (c Config) IsSomeSource(fid FuncIdentifier) bool {
	return c.isSomeTaintSpecFid(fid, func(t TaintSpec, fid2 FuncIdentifier) bool { return t.IsSource(fid2) })
}

// IsSomeSink returns true if the function identifier matches any sink in the
// config
func (c Config) IsSomeSink(fid FuncIdentifier) bool {
	return c.isSomeTaintSpecFid(fid, func(t TaintSpec, fid2 FuncIdentifier) bool { return t.IsSink(fid2) })
}

// IsSource returns true if the function identifier matches a source
// specification in the config file
func (ts TaintSpec) IsSource(fid FuncIdentifier) bool {
	return ExistsFid(ts.Sources, fid.equalOnNonEmptyFields)
}

// IsSink returns true if the function identifier matches a sink specification
// in the config file
func (ts TaintSpec) IsSink(fid FuncIdentifier) bool {
	return ExistsFid(ts.Sinks, fid.equalOnNonEmptyFields)
}

// Verbose returns true if the configuration verbosity setting is larger than
// Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// ExceedsMaxAlarms returns true if the input exceeds the maximum alarms
// parameter of the configuration (if the setting is <= 0, this returns false)
func (c Config) ExceedsMaxAlarms(n int) bool {
	return c.MaxAlarms > 0 && n >= c.MaxAlarms
}

// Package config loads and validates the task configuration.
//
// Configuration is a YAML document validated against an embedded CUE
// schema before it is decoded, so every constraint violation is reported
// at load time as a configuration error rather than surfacing later as a
// broken run.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Mode is the verification mode the task runs in.
type Mode string

const (
	ModeLive  Mode = "live"
	ModeProve Mode = "prove"
	ModeBMC   Mode = "bmc"
)

// Config holds all task options. Field semantics follow the engine flow:
// Depth bounds BMC unrollings, Append/AppendAssume govern counterexample
// extension, the dump toggles select which trace deliverables are
// produced, and Aigsmt names the SMT solver used for refinement ("none"
// disables the refinement stage even when policy would request it).
type Config struct {
	Mode Mode `yaml:"mode"`

	Depth        int  `yaml:"depth"`
	Append       int  `yaml:"append"`
	AppendAssume bool `yaml:"append_assume"`

	VCD    bool `yaml:"vcd"`
	VCDSim bool `yaml:"vcd_sim"`
	FST    bool `yaml:"fst"`

	Aigsmt   string `yaml:"aigsmt"`
	TBTop    string `yaml:"tbtop"`
	Workdir  string `yaml:"workdir"`
	Design   string `yaml:"design"`
	Database string `yaml:"database"`

	// Engines lists one whitespace-separated token string per engine:
	// the backend name followed by its extra solver arguments.
	Engines []string `yaml:"engines"`

	ExePaths map[string]string `yaml:"exe_paths"`
}

// Default returns a Config with the standard option defaults applied.
func Default() Config {
	return Config{
		Mode:         ModeProve,
		Depth:        20,
		AppendAssume: true,
		VCD:          true,
		Aigsmt:       "yices",
		Workdir:      ".",
		ExePaths:     DefaultExePaths(),
	}
}

// DefaultExePaths maps every known tool to its plain executable name,
// resolved through PATH.
func DefaultExePaths() map[string]string {
	return map[string]string{
		"suprove":          "suprove",
		"avy":              "avy",
		"rIC3":             "rIC3",
		"aigbmc":           "aigbmc",
		"modelchecker":     "modelchecker",
		"imctk-eqy-engine": "imctk-eqy-engine",
		"witness":          "yosys-witness",
		"smtbmc":           "yosys-smtbmc",
		"sim":              "yosys",
	}
}

// Load reads, validates and decodes a YAML config file.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return Parse(raw)
}

// Parse validates and decodes a YAML config document.
func Parse(raw []byte) (Config, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := validate(doc); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	// User-supplied exe paths overlay the defaults instead of replacing
	// the whole table.
	paths := DefaultExePaths()
	var overlay struct {
		ExePaths map[string]string `yaml:"exe_paths"`
	}
	if err := yaml.Unmarshal(raw, &overlay); err == nil {
		for k, v := range overlay.ExePaths {
			paths[k] = v
		}
	}
	cfg.ExePaths = paths
	return cfg, nil
}

// validate unifies the decoded document with the embedded CUE schema.
func validate(doc map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal schema error: %w", err)
	}
	val := schema.LookupPath(cue.ParsePath("config")).Unify(ctx.Encode(doc))
	if err := val.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("invalid config: %s", cueerrors.Details(err, nil))
	}
	return nil
}

// Package config loads engine settings from YAML or CUE files.
//
// Both formats are checked against the embedded CUE schema, so a YAML file
// and a CUE file describing the same settings are accepted or rejected
// alike.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSrc string

// Config holds every tunable of a run.
type Config struct {
	Engine  Engine  `yaml:"engine" json:"engine"`
	Cache   Cache   `yaml:"cache" json:"cache"`
	Pool    Pool    `yaml:"pool" json:"pool"`
	Logging Logging `yaml:"logging" json:"logging"`
}

// Engine bounds evaluation.
type Engine struct {
	MaxDepth      int `yaml:"max_depth" json:"max_depth"`
	MaxIterations int `yaml:"max_iterations" json:"max_iterations"`
	FlattenSteps  int `yaml:"flatten_steps" json:"flatten_steps"`
}

// Cache sizes the memo generations.
type Cache struct {
	HotLimit       int   `yaml:"hot_limit" json:"hot_limit"`
	ColdLimit      int   `yaml:"cold_limit" json:"cold_limit"`
	PromoteUses    int64 `yaml:"promote_uses" json:"promote_uses"`
	SignatureLimit int   `yaml:"signature_limit" json:"signature_limit"`
}

// Pool sizes the worker pool used for batches of runs.
type Pool struct {
	Workers int `yaml:"workers" json:"workers"`
}

// Logging selects the zap level and encoding.
type Logging struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Engine:  Engine{MaxDepth: 512, MaxIterations: 64, FlattenSteps: 1 << 16},
		Cache:   Cache{HotLimit: 4096, ColdLimit: 16384, PromoteUses: 2, SignatureLimit: 64},
		Pool:    Pool{Workers: 4},
		Logging: Logging{Level: "info", Format: "console"},
	}
}

// Load reads a .yaml, .yml or .cue file on top of Default and validates
// the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".cue":
		ctx := cuecontext.New()
		v, err := unifySchema(ctx, ctx.CompileBytes(data, cue.Filename(path)))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := v.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg against the schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	if _, err := unifySchema(ctx, ctx.Encode(c)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func unifySchema(ctx *cue.Context, v cue.Value) (cue.Value, error) {
	if err := v.Err(); err != nil {
		return cue.Value{}, err
	}
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, err
	}
	u := schema.Unify(v)
	if err := u.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, err
	}
	return u, nil
}

// Package config loads the server configuration: built-in defaults, then a base
// file, then optional overlay files, each layer overriding what it sets.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads path (required unless empty) and overlays (skipped when missing),
// merges them onto Defaults, validates and normalizes the result.
func Load(path string, overlays ...string) (Config, error) {
	merged := Defaults()
	if path != "" {
		base, err := readYAML(path, false)
		if err != nil {
			return Config{}, err
		}
		merged = mergeRaw(merged, base)
	}
	for _, p := range overlays {
		over, err := readYAML(p, true)
		if err != nil {
			return Config{}, err
		}
		merged = mergeRaw(merged, over)
	}
	return Resolve(merged)
}

// readYAML loads a YAML file into RawConfig. With optional set a missing file
// gives a zero config.
func readYAML(path string, optional bool) (RawConfig, error) {
	var cfg RawConfig
	b, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return RawConfig{}, nil
		}
		return RawConfig{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return RawConfig{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

func setString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func setPtr[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// mergeRaw performs a deep merge: b overrides a where set.
func mergeRaw(a, b RawConfig) RawConfig {
	out := a

	setString(&out.Server.Addr, b.Server.Addr)
	setString(&out.Server.Mode, b.Server.Mode)

	setString(&out.Log.Level, b.Log.Level)
	setString(&out.Log.Format, b.Log.Format)
	setPtr(&out.Log.Development, b.Log.Development)

	setString(&out.Feed.Characters, b.Feed.Characters)
	setString(&out.Feed.Banners, b.Feed.Banners)
	setPtr(&out.Feed.Watch, b.Feed.Watch)
	setString(&out.Feed.Debounce, b.Feed.Debounce)

	setString(&out.Refresh.Schedule, b.Refresh.Schedule)
	setString(&out.Refresh.Timeout, b.Refresh.Timeout)

	if len(b.Regions) > 0 {
		regions := make(map[string]RegionConfig, len(a.Regions)+len(b.Regions))
		for k, v := range a.Regions {
			regions[k] = v
		}
		for k, v := range b.Regions {
			cur := regions[k]
			setString(&cur.UTCOffset, v.UTCOffset)
			regions[k] = cur
		}
		out.Regions = regions
	}

	switch {
	case out.History == nil && b.History != nil:
		c := *b.History
		out.History = &c
	case out.History != nil && b.History != nil:
		c := *out.History
		setString(&c.Backend, b.History.Backend)
		setString(&c.SQLitePath, b.History.SQLitePath)
		setString(&c.RedisAddr, b.History.RedisAddr)
		setString(&c.RedisPassword, b.History.RedisPassword)
		setPtr(&c.RedisDB, b.History.RedisDB)
		setString(&c.RedisPrefix, b.History.RedisPrefix)
		out.History = &c
	}

	setString(&out.Display.FesOtherTag, b.Display.FesOtherTag)

	switch {
	case out.Tokens == nil && b.Tokens != nil:
		c := *b.Tokens
		out.Tokens = &c
	case out.Tokens != nil && b.Tokens != nil:
		c := *out.Tokens
		setString(&c.Name, b.Tokens.Name)
		setPtr(&c.PerDraw, b.Tokens.PerDraw)
		setPtr(&c.PerTenDraw, b.Tokens.PerTenDraw)
		out.Tokens = &c
	}

	return out
}

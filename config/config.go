// Package config carries the experiment configuration: the matroid
// instance, the reward distributions, the confidence budget and the outer
// repetition parameters. Values are resolved with viper: explicit flags
// beat environment variables (CSAR_ prefix), which beat an optional YAML
// config file, which beats defaults.
package config

import (
	"flag"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	MaxArms        = 100000
	MaxRepetitions = 100000
)

type Config struct {
	Matroid     string  // "uniform" or "graphic"
	Arms        int     // uniform: ground set size
	Rank        int     // uniform: basis size
	Shape       string  // graphic: "cycle", "path" or "complete"
	Vertices    int     // graphic: vertex count for Shape
	Edges       string  // graphic: explicit edge list "0-1,1-2"; overrides Shape
	Family      string  // "normal" or "bernoulli"
	Means       string  // comma-separated true means, or "linear"
	Stddev      float64 // normal only
	Delta       float64
	Repetitions int
	Threads     int
	MaxRounds   int // per-trial round budget; 0 = unlimited
	SeedFile    string
	LogFile     string // per-trial CSV log
	ConfigFile  string
	Debug       bool
}

func (c *Config) Load(args []string) error {
	fs := flag.NewFlagSet("csar", flag.ContinueOnError)
	fs.String("matroid", "uniform", "matroid kind: uniform or graphic")
	fs.Int("arms", 5, "ground set size (uniform)")
	fs.Int("rank", 2, "basis size (uniform)")
	fs.String("shape", "cycle", "graph shape (graphic): cycle, path or complete")
	fs.Int("vertices", 4, "vertex count for the graph shape (graphic)")
	fs.String("edges", "", "explicit edge list (graphic), e.g. 0-1,1-2,2-0")
	fs.String("family", "normal", "reward family: normal or bernoulli")
	fs.String("means", "linear", "true means, comma-separated, or 'linear'")
	fs.Float64("stddev", 1.0, "reward stddev (normal)")
	fs.Float64("delta", 0.05, "confidence budget")
	fs.Int("repetitions", 100, "number of independent trials")
	fs.Int("threads", 0, "worker goroutines; 0 = NumCPU")
	fs.Int("max-rounds", 0, "per-trial round budget; 0 = unlimited")
	fs.String("seed-file", "", "load/store per-trial seeds here")
	fs.String("log-file", "", "write a per-trial CSV log here")
	fs.String("config-file", "", "optional YAML config file")
	fs.Bool("debug", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	v := viper.New()
	v.SetDefault("matroid", "uniform")
	v.SetDefault("arms", 5)
	v.SetDefault("rank", 2)
	v.SetDefault("shape", "cycle")
	v.SetDefault("vertices", 4)
	v.SetDefault("edges", "")
	v.SetDefault("family", "normal")
	v.SetDefault("means", "linear")
	v.SetDefault("stddev", 1.0)
	v.SetDefault("delta", 0.05)
	v.SetDefault("repetitions", 100)
	v.SetDefault("threads", 0)
	v.SetDefault("max-rounds", 0)
	v.SetDefault("seed-file", "")
	v.SetDefault("log-file", "")
	v.SetDefault("debug", false)

	v.SetEnvPrefix("csar")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile := fileFlag(fs); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: reading %s: %w", cfgFile, err)
		}
		c.ConfigFile = cfgFile
	}

	// Flags the caller actually set win over everything.
	fs.Visit(func(f *flag.Flag) {
		if f.Name != "config-file" {
			v.Set(f.Name, f.Value.String())
		}
	})

	c.Matroid = v.GetString("matroid")
	c.Arms = v.GetInt("arms")
	c.Rank = v.GetInt("rank")
	c.Shape = v.GetString("shape")
	c.Vertices = v.GetInt("vertices")
	c.Edges = v.GetString("edges")
	c.Family = v.GetString("family")
	c.Means = v.GetString("means")
	c.Stddev = v.GetFloat64("stddev")
	c.Delta = v.GetFloat64("delta")
	c.Repetitions = v.GetInt("repetitions")
	c.Threads = v.GetInt("threads")
	c.MaxRounds = v.GetInt("max-rounds")
	c.SeedFile = v.GetString("seed-file")
	c.LogFile = v.GetString("log-file")
	c.Debug = v.GetBool("debug")

	return c.Validate()
}

func fileFlag(fs *flag.FlagSet) string {
	f := fs.Lookup("config-file")
	if f == nil {
		return ""
	}
	return f.Value.String()
}

func (c *Config) Validate() error {
	switch c.Matroid {
	case "uniform":
		if c.Arms <= 0 || c.Arms > MaxArms {
			return fmt.Errorf("config: arms must be in [1, %d], got %d", MaxArms, c.Arms)
		}
		if c.Rank <= 0 || c.Rank > c.Arms {
			return fmt.Errorf("config: rank must be in [1, arms], got %d", c.Rank)
		}
	case "graphic":
		if c.Edges == "" {
			switch c.Shape {
			case "cycle", "path", "complete":
			default:
				return fmt.Errorf("config: unknown graph shape %q", c.Shape)
			}
			if c.Vertices < 2 {
				return fmt.Errorf("config: need at least 2 vertices, got %d", c.Vertices)
			}
		}
	default:
		return fmt.Errorf("config: unknown matroid kind %q", c.Matroid)
	}
	if c.Delta <= 0 || c.Delta >= 1 {
		return fmt.Errorf("config: delta must be in (0,1), got %f", c.Delta)
	}
	if c.Repetitions <= 0 || c.Repetitions > MaxRepetitions {
		return fmt.Errorf("config: repetitions must be in [1, %d], got %d", MaxRepetitions, c.Repetitions)
	}
	return nil
}

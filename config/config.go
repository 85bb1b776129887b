// Package config loads the tunables dsk-go's scheduler, pool, and queue
// constructors take, mirroring the teacher's config.go/options.go shape:
// a plain defaulted struct, a validate pass, and functional options
// layered on top of whatever a file/environment load produced.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable this repo's runtime components take.
// Fields mirror the teacher's workers.config in spirit: plain exported
// values, no nested interfaces. A field left at zero is rejected by
// validation; defaults come from defaultConfig.
type Config struct {
	// SchedulerWorkers is the worker-goroutine count for a scheduler
	// pool (RoundRobinPool/WorkStealingPool/IOPool).
	// Default: 4.
	SchedulerWorkers uint `yaml:"scheduler_workers"`

	// SchedulerQueueCapacity bounds each worker's (or the shared one,
	// for RoundRobinPool) posted-work channel; IOPool has no queue.
	// Default: 64.
	SchedulerQueueCapacity uint `yaml:"scheduler_queue_capacity"`

	// PoolCapacity bounds a ResPool's total occupied resources (idle
	// plus checked out).
	// Default: 16.
	PoolCapacity uint `yaml:"pool_capacity"`

	// QueueCapacity bounds a ResQueue's buffered values.
	// Default: 256.
	QueueCapacity uint `yaml:"queue_capacity"`

	// BoundedConcurrency is the default maxConcurrent passed to
	// UntilAllDoneBounded when a caller doesn't supply its own.
	// Default: 8.
	BoundedConcurrency uint `yaml:"bounded_concurrency"`
}

// defaultConfig centralizes default values, applied both by Load (when
// no file overrides a field) and by New (the options builder base).
func defaultConfig() Config {
	return Config{
		SchedulerWorkers:       4,
		SchedulerQueueCapacity: 64,
		PoolCapacity:           16,
		QueueCapacity:          256,
		BoundedConcurrency:     8,
	}
}

// validateConfig checks the invariants every tunable here must satisfy:
// every capacity/count must be >0, and must fit in a non-negative int
// (the primitives in scheduler/respool/resqueue all take int).
func validateConfig(c *Config) error {
	checks := []struct {
		name string
		v    uint
	}{
		{"scheduler_workers", c.SchedulerWorkers},
		{"scheduler_queue_capacity", c.SchedulerQueueCapacity},
		{"pool_capacity", c.PoolCapacity},
		{"queue_capacity", c.QueueCapacity},
		{"bounded_concurrency", c.BoundedConcurrency},
	}
	for _, chk := range checks {
		if chk.v == 0 {
			return fmt.Errorf("config: %s must be > 0", chk.name)
		}
		if chk.v > ^uint(0)>>1 {
			return fmt.Errorf("config: %s is too large to fit in an int", chk.name)
		}
	}
	return nil
}

// Option configures a Config atop its defaults.
type Option func(*Config)

// WithSchedulerWorkers overrides the scheduler worker count.
func WithSchedulerWorkers(n uint) Option {
	return func(c *Config) { c.SchedulerWorkers = n }
}

// WithSchedulerQueueCapacity overrides each worker's queue capacity.
func WithSchedulerQueueCapacity(n uint) Option {
	return func(c *Config) { c.SchedulerQueueCapacity = n }
}

// WithPoolCapacity overrides the default ResPool capacity.
func WithPoolCapacity(n uint) Option {
	return func(c *Config) { c.PoolCapacity = n }
}

// WithQueueCapacity overrides the default ResQueue capacity.
func WithQueueCapacity(n uint) Option {
	return func(c *Config) { c.QueueCapacity = n }
}

// WithBoundedConcurrency overrides the default UntilAllDoneBounded limit.
func WithBoundedConcurrency(n uint) Option {
	return func(c *Config) { c.BoundedConcurrency = n }
}

// New builds a Config from defaults plus opts, validating the result.
func New(opts ...Option) (Config, error) {
	c := defaultConfig()
	for _, o := range opts {
		o(&c)
	}
	if err := validateConfig(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads a YAML file at path into a Config seeded with defaults,
// then applies opts on top, then layers environment variable overrides
// via viper (DSK_SCHEDULER_WORKERS, DSK_POOL_CAPACITY, etc — viper's
// standard SetEnvKeyReplacer("_",".")-free uppercase-underscore
// convention applied to each yaml tag), finally validating the result.
// A missing file is not an error: the defaults (plus opts, plus any env
// overrides) are used as-is.
func Load(path string, opts ...Option) (Config, error) {
	c := defaultConfig()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &c); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}

	for _, o := range opts {
		o(&c)
	}

	v := viper.New()
	v.SetEnvPrefix("DSK")
	v.AutomaticEnv()
	applyEnvOverrides(v, &c)

	if err := validateConfig(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}

func applyEnvOverrides(v *viper.Viper, c *Config) {
	overrideUint(v, "SCHEDULER_WORKERS", &c.SchedulerWorkers)
	overrideUint(v, "SCHEDULER_QUEUE_CAPACITY", &c.SchedulerQueueCapacity)
	overrideUint(v, "POOL_CAPACITY", &c.PoolCapacity)
	overrideUint(v, "QUEUE_CAPACITY", &c.QueueCapacity)
	overrideUint(v, "BOUNDED_CONCURRENCY", &c.BoundedConcurrency)
}

func overrideUint(v *viper.Viper, key string, dst *uint) {
	if !v.IsSet(key) {
		return
	}
	if n := v.GetInt(key); n > 0 {
		*dst = uint(n)
	}
}

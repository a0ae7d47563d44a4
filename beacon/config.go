package beacon

import "strings"

// DefaultGeneratorGSeed and DefaultGeneratorHSeed are curve's default
// Pedersen generator seeds, re-exported here so callers can configure
// a Config without importing curve directly.
const (
	DefaultGeneratorGSeed = "Fetch.ai Elliptic Curve Generator G"
	DefaultGeneratorHSeed = "Fetch.ai Elliptic Curve Generator H"
)

// DefaultAggregationPad is the 48-byte ASCII prefix C6 hashes notarisation
// aggregation coefficients with when the embedder does not override it.
var DefaultAggregationPad = "BLS Aggregation " + strings.Repeat("0", 32)

// Option configures a Config, following the same functional-options
// idiom drand's core.Config uses.
type Option func(*Config)

// Config holds the process-wide parameters the core needs before it can
// run a DKG or verify notarisation signatures.
type Config struct {
	generatorGSeed string
	generatorHSeed string
	aggregationPad string
}

// NewConfig returns a Config with the spec's defaults, overridden by
// any options passed.
func NewConfig(opts ...Option) *Config {
	c := &Config{
		generatorGSeed: DefaultGeneratorGSeed,
		generatorHSeed: DefaultGeneratorHSeed,
		aggregationPad: DefaultAggregationPad,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithGeneratorSeeds overrides the Pedersen generator domain-separation
// seeds. Both must be non-empty and distinct, enforced by curve.Init.
func WithGeneratorSeeds(gSeed, hSeed string) Option {
	return func(c *Config) {
		c.generatorGSeed = gSeed
		c.generatorHSeed = hSeed
	}
}

// WithAggregationPad overrides the domain-separation prefix for C6's
// aggregate-signature hash-to-Fr.
func WithAggregationPad(pad string) Option {
	return func(c *Config) {
		c.aggregationPad = pad
	}
}

// GeneratorSeeds returns the configured G and H seeds.
func (c *Config) GeneratorSeeds() (string, string) {
	return c.generatorGSeed, c.generatorHSeed
}

// AggregationPad returns the configured aggregation domain-separation
// prefix.
func (c *Config) AggregationPad() string {
	return c.aggregationPad
}

package combo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalidConfig marks option combinations rejected before any search.
var ErrInvalidConfig = errors.New("invalid configuration")

// Unlimited disables the community ceiling.
const Unlimited = -1

// DefaultMaxNodes is the default server.max_nodes.
const DefaultMaxNodes = 5000

// Config manages algorithm configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults. Environment variables
// prefixed with COMBO_ override any key, e.g. COMBO_ALGORITHM_MAX_COMMUNITIES.
func NewConfig() *Config {
	v := viper.New()

	v.SetDefault("algorithm.modularity_resolution", 1.0)
	v.SetDefault("algorithm.max_communities", Unlimited)
	v.SetDefault("algorithm.num_split_attempts", 0)
	v.SetDefault("algorithm.fixed_split_step", 0)
	v.SetDefault("algorithm.start_separate", false)
	v.SetDefault("algorithm.treat_as_modularity", false)
	// algorithm.random_seed has no default: unset means a fresh seed per run.

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.verbose", 0)

	v.SetDefault("server.max_nodes", DefaultMaxNodes)

	v.SetEnvPrefix("combo")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// BindFlag lets a command-line flag override key when the flag is set.
func (c *Config) BindFlag(key string, flag *pflag.Flag) error {
	return c.v.BindPFlag(key, flag)
}

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// Clone returns an independent config holding the resolved value of every
// key that has a value. Keys backed only by an unchanged flag stay unset, so
// an absent random seed remains absent. Later changes to either config do
// not affect the other.
func (c *Config) Clone() *Config {
	clone := NewConfig()
	for _, key := range c.v.AllKeys() {
		if c.v.IsSet(key) {
			clone.v.Set(key, c.v.Get(key))
		}
	}
	return clone
}

func (c *Config) Resolution() float64 {
	return c.v.GetFloat64("algorithm.modularity_resolution")
}

func (c *Config) MaxCommunities() int {
	return c.v.GetInt("algorithm.max_communities")
}

func (c *Config) NumSplitAttempts() int {
	return c.v.GetInt("algorithm.num_split_attempts")
}

func (c *Config) FixedSplitStep() int {
	return c.v.GetInt("algorithm.fixed_split_step")
}

func (c *Config) StartSeparate() bool {
	return c.v.GetBool("algorithm.start_separate")
}

func (c *Config) TreatAsModularity() bool {
	return c.v.GetBool("algorithm.treat_as_modularity")
}

// RandomSeed returns the configured seed, or a time-based one when unset.
func (c *Config) RandomSeed() int64 {
	if c.HasRandomSeed() {
		return c.v.GetInt64("algorithm.random_seed")
	}
	return time.Now().UnixNano()
}

func (c *Config) HasRandomSeed() bool {
	return c.v.IsSet("algorithm.random_seed")
}

func (c *Config) LogLevel() string {
	return c.v.GetString("logging.level")
}

func (c *Config) Verbose() int {
	return c.v.GetInt("logging.verbose")
}

// MaxNodes caps the size of graphs accepted over HTTP. B is dense, so a
// graph of n nodes costs O(n^2) memory and time.
func (c *Config) MaxNodes() int {
	return c.v.GetInt("server.max_nodes")
}

func (c *Config) IntermediateResultsPath() string {
	return c.v.GetString("output.intermediate_results_path")
}

// ceiling returns the community ceiling with Unlimited mapped to n.
func (c *Config) ceiling(n int) int {
	if limit := c.MaxCommunities(); limit != Unlimited && limit < n {
		return limit
	}
	return n
}

type validatedOptions struct {
	Resolution       float64 `validate:"gt=0"`
	MaxCommunities   int     `validate:"eq=-1|gte=1"`
	NumSplitAttempts int     `validate:"gte=0"`
	FixedSplitStep   int     `validate:"gte=0"`
	Verbose          int     `validate:"gte=0"`
	LogLevel         string  `validate:"oneof=trace debug info warn error fatal panic disabled"`
	MaxNodes         int     `validate:"gte=1,lte=20000"`
}

var validate = validator.New()

// Validate rejects conflicting or out-of-range options.
func (c *Config) Validate() error {
	opts := validatedOptions{
		Resolution:       c.Resolution(),
		MaxCommunities:   c.MaxCommunities(),
		NumSplitAttempts: c.NumSplitAttempts(),
		FixedSplitStep:   c.FixedSplitStep(),
		Verbose:          c.Verbose(),
		LogLevel:         c.LogLevel(),
		MaxNodes:         c.MaxNodes(),
	}
	if err := validate.Struct(opts); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s=%v fails %q", ErrInvalidConfig, fe.Field(), fe.Value(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	return c.createLogger(os.Stderr)
}

func (c *Config) createLogger(out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	if c.Verbose() > 1 && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "combo").Logger()
}

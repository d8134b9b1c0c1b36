package annopack

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/annopack/codec"
)

// Config is the file form of the construction options.
//
//	bit_packing: true
//	dynamic_schema: true
//	initial_capacity: 4096
//	storage_source: offheap
//	surrogate_width: 2
//	memory_limit_bytes: 67108864
//	log_level: debug
type Config struct {
	BitPacking       bool   `yaml:"bit_packing"`
	DynamicSchema    bool   `yaml:"dynamic_schema"`
	InitialCapacity  int    `yaml:"initial_capacity" validate:"omitempty,min=1"`
	ChunkPower       int    `yaml:"chunk_power" validate:"omitempty,min=1,max=24"`
	AutoRegister     bool   `yaml:"auto_register"`
	WeakOwners       bool   `yaml:"weak_owners"`
	StorageSource    string `yaml:"storage_source" validate:"omitempty,oneof=heap offheap"`
	SurrogateWidth   int    `yaml:"surrogate_width" validate:"omitempty,min=1,max=4"`
	MemoryLimitBytes int64  `yaml:"memory_limit_bytes" validate:"min=0"`
	Locking          bool   `yaml:"locking"`
	Codec            string `yaml:"codec" validate:"omitempty,oneof=json go-json"`
	LogLevel         string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig decodes and validates a YAML configuration.
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode yaml: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Options converts the configuration into construction options. Zero fields
// keep the defaults.
func (c *Config) Options() []Option {
	opts := []Option{
		WithBitPacking(c.BitPacking),
		WithDynamicSchema(c.DynamicSchema),
		WithAutoRegister(c.AutoRegister),
		WithWeakOwners(c.WeakOwners),
		WithLocking(c.Locking),
		WithMemoryLimit(c.MemoryLimitBytes),
	}
	if c.InitialCapacity > 0 {
		opts = append(opts, WithInitialCapacity(c.InitialCapacity))
	}
	if c.ChunkPower > 0 {
		opts = append(opts, WithChunkPower(c.ChunkPower))
	}
	if c.StorageSource == SourceOffHeap.String() {
		opts = append(opts, WithStorageSource(SourceOffHeap))
	}
	if c.SurrogateWidth > 0 {
		opts = append(opts, WithSurrogateWidth(c.SurrogateWidth))
	}
	if cd, ok := codec.ByName(c.Codec); ok {
		opts = append(opts, WithCodec(cd))
	}
	if c.LogLevel != "" {
		var level slog.Level
		// Validated by the oneof tag.
		_ = level.UnmarshalText([]byte(c.LogLevel))
		opts = append(opts, WithLogLevel(level))
	}
	return opts
}

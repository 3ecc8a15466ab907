package sender

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultPort          = 10051
	DefaultReadChunkSize = 1024
)

// Config locates the trapper listener.
type Config struct {
	Server string `toml:"server"`
	// Port defaults to DefaultPort when zero.
	Port int `toml:"port"`
	// ReadChunkSize bounds each read of the response body. Defaults to DefaultReadChunkSize when zero.
	ReadChunkSize int `toml:"read_chunk_size"`
}

// Validate checks that the Config has usable values.
func (c Config) Validate() error {
	if c.Server == "" {
		return errors.New("server is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be within 0-65535, got %d", c.Port)
	}
	if c.ReadChunkSize < 0 {
		return fmt.Errorf("read_chunk_size must be >= 0, got %d", c.ReadChunkSize)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ReadChunkSize == 0 {
		c.ReadChunkSize = DefaultReadChunkSize
	}
	return c
}

// Address is the host:port the sender dials.
func (c Config) Address() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(c.withDefaults().Port))
}

// LoadConfig reads a TOML file such as
//
//	server = "zabbix.example.com"
//	port = 10051
//
// applying defaults for omitted fields. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

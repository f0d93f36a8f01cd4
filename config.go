package logger

import (
	"fmt"
	"time"

	"github.com/valyala/fastjson"
)

// Default sink limits.
const (
	defaultInterval   = 5 * time.Minute
	defaultSingleSize = 4 << 20   // rotation threshold per file
	defaultTotalSize  = 100 << 20 // retention cap across all files
)

// Config configures a StagingSink.
type Config struct {
	// Dir holds the rotated log files and the two staging cache files.
	Dir string

	// Prefix names rotated files: {prefix}_{timestamp}[_{n}].log.
	Prefix string

	// PubKey is the peer's long-term public key, uppercase hex of the
	// uncompressed P-256 point.
	PubKey string

	// Interval between retention sweeps.
	Interval time.Duration

	// SingleSize is the per-file rotation threshold in bytes.
	SingleSize int64

	// TotalSize is the retention cap in bytes across all rotated files.
	TotalSize int64
}

// withDefaults fills unset limits.
func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	if c.SingleSize <= 0 {
		c.SingleSize = defaultSingleSize
	}
	if c.TotalSize <= 0 {
		c.TotalSize = defaultTotalSize
	}
	return c
}

// ParseConfig reads a Config from JSON:
//
//	{
//	  "dir": "/var/log/app",
//	  "prefix": "app",
//	  "pub_key": "04AB...",
//	  "interval": "5m",
//	  "single_size": 4194304,
//	  "total_size": 104857600
//	}
//
// interval is a Go duration string; sizes are bytes. Absent limits take the
// defaults.
func ParseConfig(data []byte) (Config, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	conf := Config{
		Dir:        string(v.GetStringBytes("dir")),
		Prefix:     string(v.GetStringBytes("prefix")),
		PubKey:     string(v.GetStringBytes("pub_key")),
		SingleSize: v.GetInt64("single_size"),
		TotalSize:  v.GetInt64("total_size"),
	}
	if conf.Dir == "" {
		return Config{}, fmt.Errorf("config: dir is required")
	}
	if conf.Prefix == "" {
		return Config{}, fmt.Errorf("config: prefix is required")
	}
	if iv := v.GetStringBytes("interval"); len(iv) > 0 {
		d, err := time.ParseDuration(string(iv))
		if err != nil {
			return Config{}, fmt.Errorf("config: interval: %w", err)
		}
		conf.Interval = d
	}
	return conf.withDefaults(), nil
}

package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAddr is the HTTP listen address
	DefaultAddr = ":8080"
	// DefaultModelsDir is scanned for OBJ and PLY files offered as mesh scenes
	DefaultModelsDir = "models"
	// DefaultStaticDir holds the browser viewer
	DefaultStaticDir = "static"
	// DefaultMaxFrames bounds a WebSocket render run. Zero renders until the client leaves.
	DefaultMaxFrames = 500
	// DefaultPingInterval is the WebSocket keepalive cadence
	DefaultPingInterval = 30 * time.Second
)

// Config captures the runtime settings of the web server
type Config struct {
	Addr         string        // HTTP listen address
	GRPCAddr     string        // gRPC frame service address, empty to disable
	RecordDir    string        // Session recording root, empty to disable recording
	ModelsDir    string        // Directory of mesh scenes
	StaticDir    string        // Directory served at /
	MaxFrames    int           // Frames per WebSocket render run (0 = unlimited)
	NumWorkers   int           // Render workers per session (0 = CPU count)
	PingInterval time.Duration // WebSocket keepalive
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{
		Addr:         DefaultAddr,
		ModelsDir:    DefaultModelsDir,
		StaticDir:    DefaultStaticDir,
		MaxFrames:    DefaultMaxFrames,
		PingInterval: DefaultPingInterval,
	}
}

// LoadConfig reads the server configuration from PATHTRACER_* environment
// variables on top of the defaults. All invalid overrides are reported together.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	cfg.Addr = getString("PATHTRACER_ADDR", cfg.Addr)
	cfg.GRPCAddr = getString("PATHTRACER_GRPC_ADDR", "")
	cfg.RecordDir = getString("PATHTRACER_RECORD_DIR", "")
	cfg.ModelsDir = getString("PATHTRACER_MODELS_DIR", cfg.ModelsDir)
	cfg.StaticDir = getString("PATHTRACER_STATIC_DIR", cfg.StaticDir)

	var problems []string

	if raw := strings.TrimSpace(os.Getenv("PATHTRACER_MAX_FRAMES")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("PATHTRACER_MAX_FRAMES must be a non-negative integer, got %q", raw))
		} else {
			cfg.MaxFrames = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("PATHTRACER_WORKERS")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			problems = append(problems, fmt.Sprintf("PATHTRACER_WORKERS must be a non-negative integer, got %q", raw))
		} else {
			cfg.NumWorkers = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("PATHTRACER_PING_INTERVAL")); raw != "" {
		duration, err := time.ParseDuration(raw)
		if err != nil || duration <= 0 {
			problems = append(problems, fmt.Sprintf("PATHTRACER_PING_INTERVAL must be a positive duration, got %q", raw))
		} else {
			cfg.PingInterval = duration
		}
	}

	if cfg.GRPCAddr != "" && cfg.GRPCAddr == cfg.Addr {
		problems = append(problems, "PATHTRACER_GRPC_ADDR must differ from PATHTRACER_ADDR")
	}

	if len(problems) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

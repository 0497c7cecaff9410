package runtimeexec

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/animus-labs/runworker/internal/domain"
	"github.com/animus-labs/runworker/internal/platform/env"
)

const (
	DefaultDirectTimeout  = 150 * time.Second
	DefaultWrappedTimeout = 30 * time.Second
)

type Config struct {
	Interpreter    string
	WrapperArgs    []string
	DirectTimeout  time.Duration
	WrappedTimeout time.Duration
	// KillGrace bounds how long output pipes may stay open after the child
	// was killed.
	KillGrace time.Duration
}

func DefaultConfig() Config {
	return Config{
		Interpreter:    "python",
		WrapperArgs:    []string{"-m", "scoop"},
		DirectTimeout:  DefaultDirectTimeout,
		WrappedTimeout: DefaultWrappedTimeout,
		KillGrace:      2 * time.Second,
	}
}

func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	cfg.Interpreter = env.String("WORKER_PYTHON_BIN", cfg.Interpreter)
	if module := strings.TrimSpace(env.String("WORKER_WRAPPER_MODULE", "")); module != "" {
		cfg.WrapperArgs = []string{"-m", module}
	}

	var err error
	if cfg.DirectTimeout, err = env.Duration("WORKER_DIRECT_TIMEOUT", cfg.DirectTimeout); err != nil {
		return Config{}, err
	}
	if cfg.WrappedTimeout, err = env.Duration("WORKER_WRAPPED_TIMEOUT", cfg.WrappedTimeout); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Interpreter) == "" {
		return errors.New("WORKER_PYTHON_BIN is required")
	}
	if c.DirectTimeout <= 0 {
		return errors.New("WORKER_DIRECT_TIMEOUT must be positive")
	}
	if c.WrappedTimeout <= 0 {
		return errors.New("WORKER_WRAPPED_TIMEOUT must be positive")
	}
	if c.KillGrace < 0 {
		return errors.New("kill grace must be >= 0")
	}
	return nil
}

// Plan resolves the child process for a strategy. The child always starts in
// the artifact's own directory.
func (c Config) Plan(strategy domain.Strategy, artifactPath string) Invocation {
	inv := Invocation{
		Strategy: strategy,
		Path:     c.Interpreter,
		Dir:      filepath.Dir(artifactPath),
	}
	switch strategy {
	case domain.StrategyDirect:
		inv.Args = []string{artifactPath}
		inv.Timeout = c.DirectTimeout
	default:
		inv.Args = append(append([]string{}, c.WrapperArgs...), artifactPath)
		inv.Timeout = c.WrappedTimeout
	}
	return inv
}

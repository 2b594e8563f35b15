package training

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/groupbuy/procurement-analytics/internal/config"
)

// RunRequest describes one external trainer invocation.
type RunRequest struct {
	Intent        string
	DataRefs      []string
	MaxIterations int
	WorkDir       string
}

// Solution is the best candidate model found by the external trainer.
type Solution struct {
	Performance float64 `json:"performance"`
}

// RunResult is the external trainer's reply. Best is nil when the search
// found no solution.
type RunResult struct {
	Best    *Solution              `json:"best_solution"`
	Metrics map[string]interface{} `json:"metrics"`
}

// AutoML is the boundary to the external model trainer. Availability is
// optional and detected once at process start; callers must check
// Available before Run.
type AutoML interface {
	Available() bool
	Run(ctx context.Context, req RunRequest) (*RunResult, error)
}

// CLIRunner drives an AutoML trainer installed as a command-line tool.
// The binary is resolved once at construction; a missing binary leaves
// the runner permanently unavailable rather than failing at call time.
type CLIRunner struct {
	path    string
	timeout time.Duration
	logger  *zap.Logger
}

// NewCLIRunner resolves the configured trainer binary on PATH.
func NewCLIRunner(cfg config.AutoMLConfig, logger *zap.Logger) *CLIRunner {
	path, err := exec.LookPath(cfg.Binary)
	if err != nil {
		logger.Warn("AutoML trainer binary not found, training endpoints will report unavailable",
			zap.String("binary", cfg.Binary))
		path = ""
	}
	return &CLIRunner{
		path:    path,
		timeout: cfg.RunTimeout,
		logger:  logger,
	}
}

// Available reports whether the trainer binary was found.
func (r *CLIRunner) Available() bool {
	return r.path != ""
}

// Run invokes the trainer and decodes its JSON report. The call blocks
// for the whole search, bounded by the configured run timeout.
func (r *CLIRunner) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if !r.Available() {
		return nil, ErrTrainerUnavailable
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := []string{
		"run",
		"--intent", req.Intent,
		"--max-iterations", strconv.Itoa(req.MaxIterations),
		"--work-dir", req.WorkDir,
		"--output", "json",
	}
	args = append(args, req.DataRefs...)

	r.logger.Info("Invoking AutoML trainer",
		zap.String("binary", r.path),
		zap.Int("max_iterations", req.MaxIterations),
		zap.String("work_dir", req.WorkDir))

	cmd := exec.CommandContext(ctx, r.path, args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("automl trainer failed: %s", string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("automl trainer failed: %w", err)
	}

	var result RunResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to decode automl trainer output: %w", err)
	}
	return &result, nil
}

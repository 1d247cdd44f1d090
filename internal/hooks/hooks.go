// Package hooks runs user scripts when a notification outcome is resolved.
//
// Scripts live in <hooks_dir>/<hook point>/ and run in name order. They
// receive the outcome through NTFYTOAST_* environment variables.
package hooks

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cristianoliveira/ntfytoast/internal/colors"
	"github.com/cristianoliveira/ntfytoast/internal/config"
)

// PostAction is the hook point run after a session resolves its outcome.
const PostAction = "post-action"

// Failure modes.
const (
	ModeAbort  = "abort"
	ModeWarn   = "warn"
	ModeIgnore = "ignore"
)

var (
	asyncPending      sync.WaitGroup
	asyncPendingMu    sync.Mutex
	asyncPendingCount int
)

// Options controls a hook run.
type Options struct {
	Dir         string
	Enabled     bool
	FailureMode string
	Timeout     time.Duration
	Async       bool
	MaxAsync    int
}

// OptionsFromConfig reads the hooks_* configuration keys.
func OptionsFromConfig() Options {
	return Options{
		Dir:         config.Get("hooks_dir", ""),
		Enabled:     config.GetBool("hooks_enabled", true),
		FailureMode: config.Get("hooks_failure_mode", ModeWarn),
		Timeout:     time.Duration(config.GetInt("hooks_timeout", 10)) * time.Second,
		Async:       config.GetBool("hooks_async", false),
		MaxAsync:    config.GetInt("max_hooks", 10),
	}
}

// Init creates the hooks directory.
func Init() error {
	dir := config.Get("hooks_dir", "")
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, config.FileModeDir); err != nil {
		colors.Error(fmt.Sprintf("failed to create hooks directory %s: %v", dir, err))
		return fmt.Errorf("failed to create hooks directory %s: %w", dir, err)
	}
	return nil
}

// Run executes the hooks of hookPoint with the configured options.
func Run(hookPoint string, envVars ...string) error {
	return RunWith(OptionsFromConfig(), hookPoint, envVars...)
}

// RunWith executes the hooks of hookPoint. envVars are KEY=VALUE pairs. In
// abort mode the first failing script stops the run and its error is
// returned; other modes never return an error.
func RunWith(opts Options, hookPoint string, envVars ...string) error {
	if !opts.Enabled || opts.Dir == "" {
		return nil
	}
	scripts := collectScripts(filepath.Join(opts.Dir, hookPoint))
	if len(scripts) == 0 {
		return nil
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxAsync <= 0 {
		opts.MaxAsync = 10
	}

	env := buildEnv(hookPoint, opts.FailureMode, envVars)
	colors.Debug(fmt.Sprintf("Running %s hooks (%d script(s))", hookPoint, len(scripts)))

	for _, script := range scripts {
		if opts.Async {
			if !reserveAsync(opts.MaxAsync) {
				colors.Warning(fmt.Sprintf("too many async hooks pending (max: %d), skipping %s", opts.MaxAsync, filepath.Base(script)))
				continue
			}
			go runAsyncHook(script, env, opts)
			continue
		}
		if err := runSyncHook(script, env, opts); err != nil && opts.FailureMode == ModeAbort {
			return err
		}
	}
	return nil
}

func collectScripts(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var scripts []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := os.Stat(path)
		if err != nil || info.Mode()&0o111 == 0 {
			continue
		}
		scripts = append(scripts, path)
	}
	sort.Strings(scripts)
	return scripts
}

func buildEnv(hookPoint, failureMode string, envVars []string) []string {
	envMap := map[string]string{
		"HOOK_POINT":                   hookPoint,
		"HOOK_TIMESTAMP":               time.Now().Format(time.RFC3339),
		"NTFYTOAST_HOOKS_FAILURE_MODE": failureMode,
	}
	if exe, err := os.Executable(); err == nil {
		envMap["NTFYTOAST_BINARY"] = exe
	}
	for _, v := range envVars {
		if k, val, ok := strings.Cut(v, "="); ok {
			envMap[k] = val
		}
	}
	env := os.Environ()
	for k, v := range envMap {
		env = append(env, k+"="+v)
	}
	return env
}

func runSyncHook(script string, env []string, opts Options) error {
	name := filepath.Base(script)
	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, script)
	cmd.Env = env
	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		os.Stderr.Write(output)
	}
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("timed out after %s", opts.Timeout)
		}
		switch opts.FailureMode {
		case ModeAbort:
			return fmt.Errorf("hook %s failed: %w", name, err)
		case ModeIgnore:
		default:
			colors.Warning(fmt.Sprintf("hook %s failed: %v", name, err))
		}
		return nil
	}
	colors.Debug(fmt.Sprintf("hook %s completed in %.2fs", name, time.Since(start).Seconds()))
	return nil
}

func reserveAsync(max int) bool {
	asyncPendingMu.Lock()
	defer asyncPendingMu.Unlock()
	if asyncPendingCount >= max {
		return false
	}
	asyncPendingCount++
	asyncPending.Add(1)
	return true
}

func releaseAsync() {
	asyncPendingMu.Lock()
	asyncPendingCount--
	asyncPendingMu.Unlock()
	asyncPending.Done()
}

func runAsyncHook(script string, env []string, opts Options) {
	defer releaseAsync()
	defer func() {
		if r := recover(); r != nil {
			colors.Error(fmt.Sprintf("async hook %s panicked: %v", filepath.Base(script), r))
		}
	}()
	// abort has nothing to stop once detached
	if opts.FailureMode == ModeAbort {
		opts.FailureMode = ModeWarn
	}
	_ = runSyncHook(script, env, opts)
}

// WaitForPendingHooks waits for all pending async hooks to complete.
func WaitForPendingHooks() {
	asyncPending.Wait()
}

// Shutdown waits for async hooks before the process exits.
func Shutdown() {
	WaitForPendingHooks()
}

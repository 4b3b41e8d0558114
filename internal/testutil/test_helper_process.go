// Package testutil provides test utilities and helpers for gitchangelog tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"
)

// HelperResponse is the canned answer for one command line.
type HelperResponse struct {
	// ExitCode is the exit code to return (default 0).
	ExitCode int `json:"exit_code"`
	// Stdout is the content to write to stdout.
	Stdout string `json:"stdout"`
	// Stderr is the content to write to stderr.
	Stderr string `json:"stderr"`
	// Sleep delays the exit, used to exercise timeouts.
	Sleep time.Duration `json:"sleep,omitempty"`
}

// HelperProcessConfig configures the behavior of TestHelperProcess.
//
// When Script is empty every invocation gets Default. Otherwise the
// arguments following "--" are joined with single spaces and looked up in
// Script; unknown command lines exit 127 so that tests notice unexpected calls.
type HelperProcessConfig struct {
	Default HelperResponse            `json:"default"`
	Script  map[string]HelperResponse `json:"script,omitempty"`
	// CallLog, when set, receives one YAML entry per invocation.
	CallLog string `json:"call_log,omitempty"`
}

// HelperProcessEnvVars contains the environment variable names used by TestHelperProcess.
const (
	// EnvWantHelperProcess signals that the test binary should run as a helper process.
	EnvWantHelperProcess = "GO_WANT_HELPER_PROCESS"
	// EnvHelperProcessConfig contains JSON-encoded HelperProcessConfig.
	EnvHelperProcessConfig = "GO_HELPER_PROCESS_CONFIG"
)

// TestHelperProcess implements the helper process pattern. When invoked with
// GO_WANT_HELPER_PROCESS=1 it behaves as a fake executable and exits without
// returning; otherwise it returns immediately.
//
// Usage in a test file:
//
//	func TestHelperProcess(t *testing.T) {
//	    testutil.TestHelperProcess(t)
//	}
func TestHelperProcess(t *testing.T) {
	if os.Getenv(EnvWantHelperProcess) != "1" {
		return
	}

	config := parseHelperConfig()
	args := helperArgs(os.Args)
	runHelperProcess(config, args)
}

// parseHelperConfig parses HelperProcessConfig from the environment.
func parseHelperConfig() HelperProcessConfig {
	config := HelperProcessConfig{}
	if raw := os.Getenv(EnvHelperProcessConfig); raw != "" {
		// Ignore parse errors; use defaults on failure
		_ = json.Unmarshal([]byte(raw), &config)
	}
	return config
}

// helperArgs returns the arguments after the first "--".
func helperArgs(argv []string) []string {
	for i, a := range argv {
		if a == "--" {
			return argv[i+1:]
		}
	}
	return nil
}

// runHelperProcess answers one invocation and always exits.
func runHelperProcess(config HelperProcessConfig, args []string) {
	resp := config.Default
	if len(config.Script) > 0 {
		key := strings.Join(args, " ")
		scripted, ok := config.Script[key]
		if !ok {
			scripted = HelperResponse{
				ExitCode: 127,
				Stderr:   fmt.Sprintf("unexpected command: %q", key),
			}
		}
		resp = scripted
	}

	if config.CallLog != "" {
		// Best effort: a broken log must not change the fake's answer
		_ = AppendCall(config.CallLog, args, resp.ExitCode)
	}

	if resp.Stdout != "" {
		fmt.Fprint(os.Stdout, resp.Stdout)
	}
	if resp.Stderr != "" {
		fmt.Fprint(os.Stderr, resp.Stderr)
	}
	if resp.Sleep > 0 {
		time.Sleep(resp.Sleep)
	}

	os.Exit(resp.ExitCode)
}

// HelperCommand describes how to launch the current test binary as a fake
// executable. Executable is shell-quoted so it can be fed to a
// git_executable style setting; Argv is the same thing pre-split.
type HelperCommand struct {
	Executable string
	Argv       []string
	Env        []string
}

// ConfigureHelper returns the command line and environment that re-run the
// test binary as a helper process. testName must name a test function that
// calls TestHelperProcess.
func ConfigureHelper(t *testing.T, testName string, config HelperProcessConfig) HelperCommand {
	t.Helper()

	testBinary, err := os.Executable()
	if err != nil {
		t.Fatalf("failed to get test binary path: %v", err)
	}

	runFlag := "-test.run=^" + testName + "$"
	return HelperCommand{
		Executable: fmt.Sprintf("%q %s --", testBinary, runFlag),
		Argv:       []string{testBinary, runFlag, "--"},
		Env:        buildHelperEnv(t, config),
	}
}

// buildHelperEnv constructs the environment variables for a helper process.
func buildHelperEnv(t *testing.T, config HelperProcessConfig) []string {
	t.Helper()

	env := os.Environ()
	env = append(env, EnvWantHelperProcess+"=1")

	configJSON, err := json.Marshal(config)
	if err != nil {
		t.Fatalf("marshaling helper config: %v", err)
	}
	return append(env, EnvHelperProcessConfig+"="+string(configJSON))
}

// Respond is shorthand for a successful scripted response.
func Respond(stdout string) HelperResponse {
	return HelperResponse{Stdout: stdout}
}

// Fail is shorthand for a failing scripted response.
func Fail(exitCode int, stderr string) HelperResponse {
	return HelperResponse{ExitCode: exitCode, Stderr: stderr}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	mdslides "github.com/alnah/go-mdslides"
)

// probeTimeout bounds the --probe browser check.
const probeTimeout = 45 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string     `json:"status"` // "ready", "warnings", "errors"
	Chrome   chromeInfo `json:"chrome"`
	Engines  engineInfo `json:"engines"`
	Env      envInfo    `json:"environment"`
	System   systemInfo `json:"system"`
	Warnings []string   `json:"warnings,omitempty"`
	Errors   []string   `json:"errors,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// engineInfo holds the result of loading Mermaid and KaTeX in Chrome.
type engineInfo struct {
	Probed bool   `json:"probed"`
	Loaded bool   `json:"loaded"`
	Error  string `json:"error,omitempty"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	jsonOutput, probe := false, false
	for _, arg := range args {
		switch arg {
		case "--json":
			jsonOutput = true
		case "--probe":
			probe = true
		default:
			fmt.Fprintf(env.Stderr, "error: unknown argument %q\n", arg)
			return ExitUsage
		}
	}

	result := runDoctor(env)
	if probe {
		probeEngines(ctx, result)
	}
	result.finish()

	if jsonOutput {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs the static checks. Call finish to compute the status.
func runDoctor(env *Environment) *doctorResult {
	result := &doctorResult{
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  env.getenv("ROD_NO_SANDBOX"),
			BrowserBin: env.getenv("ROD_BROWSER_BIN"),
		},
	}

	checkChrome(result)
	checkEnvironment(result, env)
	checkSystem(result)
	return result
}

func (r *doctorResult) finish() {
	switch {
	case len(r.Errors) > 0:
		r.Status = "errors"
	case len(r.Warnings) > 0:
		r.Status = "warnings"
	default:
		r.Status = "ready"
	}
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found; diagrams render as source. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	cmd := exec.Command(chromePath, "--version") // #nosec G204 -- path from launcher or ROD_BROWSER_BIN
	out, err := cmd.Output()
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// probeEngines launches Chrome and loads the Mermaid and KaTeX scripts.
func probeEngines(ctx context.Context, result *doctorResult) {
	result.Engines.Probed = true
	if !result.Chrome.Found {
		result.Engines.Error = "skipped: Chrome not found"
		return
	}

	deck, err := mdslides.NewDeck(mdslides.WithMath(mdslides.MathKaTeX))
	if err != nil {
		result.Engines.Error = err.Error()
		result.Errors = append(result.Errors, "Engine setup failed: "+err.Error())
		return
	}
	defer func() { _ = deck.Close() }()

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := deck.CheckBrowser(ctx); err != nil {
		result.Engines.Error = err.Error()
		result.Errors = append(result.Errors, "Mermaid/KaTeX did not load in Chrome: "+err.Error())
		return
	}
	result.Engines.Loaded = true
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, env *Environment) {
	result.Env.Container, result.Env.ContainerHint = isContainer(env)

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if env.getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(env *Environment) (bool, string) {
	if env.getenv("MDSLIDES_CONTAINER") == "1" {
		return true, "MDSLIDES_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := env.getenv("container"); v != "" {
		return true, "container=" + v
	}
	if env.getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the browser host page can be written.
func checkSystem(result *doctorResult) {
	tmpDir := os.TempDir()
	testFile := filepath.Join(tmpDir, "mdslides-doctor-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	} else {
		_ = os.Remove(testFile)
		result.System.TempWritable = true
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "mdslides doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	if r.Engines.Probed {
		fmt.Fprintln(w, "Engines")
		if r.Engines.Loaded {
			fmt.Fprintln(w, "  [OK] Mermaid and KaTeX loaded")
		} else {
			fmt.Fprintf(w, "  [ERROR] %s\n", r.Engines.Error)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to present")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}

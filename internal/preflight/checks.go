package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CommandOutput runs a command and returns its combined output. Tests swap it.
type CommandOutput func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultCommandOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec
}

// CheckCUDA reports whether nvidia-smi lists at least one GPU.
func CheckCUDA(ctx context.Context, nvidiaSMI string) Result {
	return CheckCUDAWith(ctx, nvidiaSMI, defaultCommandOutput)
}

// CheckCUDAWith is CheckCUDA with an injectable command runner.
func CheckCUDAWith(ctx context.Context, nvidiaSMI string, run CommandOutput) Result {
	const name = "CUDA device"
	binary := strings.TrimSpace(nvidiaSMI)
	if binary == "" {
		binary = "nvidia-smi"
	}
	out, err := run(ctx, binary, "-L")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Result{Name: name, Detail: fmt.Sprintf("%s not found; no NVIDIA driver installed", binary)}
		}
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			detail = err.Error()
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s failed: %s", binary, firstLine(detail))}
	}
	var gpus []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "GPU ") {
			gpus = append(gpus, line)
		}
	}
	if len(gpus) == 0 {
		return Result{Name: name, Detail: "no GPU listed by " + binary}
	}
	return Result{Name: name, Passed: true, Detail: gpus[0]}
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

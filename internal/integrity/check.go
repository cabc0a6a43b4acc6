// Package integrity pins the configuration file to a checksum.
// When a <config>.sha256 sidecar exists, the config must hash to the value
// it holds or the process refuses to evaluate anything. A mismatch is
// reported as a tamper event.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SidecarSuffix is appended to the config path to find its pin.
const SidecarSuffix = ".sha256"

// TamperLogDir, when set, receives tamper.jsonl in addition to stderr.
// Override for testing.
var TamperLogDir = ""

// TamperEvent records a configuration integrity violation.
type TamperEvent struct {
	Timestamp    string `json:"timestamp"`
	Config       string `json:"config"`
	ExpectedHash string `json:"expected_hash"`
	ActualHash   string `json:"actual_hash"`
	Hostname     string `json:"hostname"`
	Type         string `json:"type"`
}

// TamperError is returned by Verify on a checksum mismatch.
type TamperError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *TamperError) Error() string {
	return fmt.Sprintf("integrity: config checksum mismatch for %s (expected %s, got %s)", e.Path, e.Expected, e.Actual)
}

// Status describes the pin state of one config file.
type Status struct {
	Config   string `json:"config"`
	Sidecar  string `json:"sidecar"`
	Pinned   bool   `json:"pinned"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Match    bool   `json:"match"`
}

// SidecarPath returns the pin file for configPath.
func SidecarPath(configPath string) string {
	return configPath + SidecarSuffix
}

// Check reports the pin state of configPath without side effects.
func Check(configPath string) (Status, error) {
	st := Status{Config: configPath, Sidecar: SidecarPath(configPath)}

	expected, err := loadSidecar(st.Sidecar)
	if err != nil {
		return st, err
	}
	if expected == "" {
		return st, nil
	}
	st.Pinned = true
	st.Expected = expected

	actual, err := hashFile(configPath)
	if err != nil {
		return st, fmt.Errorf("integrity: cannot hash %s: %w", configPath, err)
	}
	st.Actual = actual
	st.Match = actual == expected
	return st, nil
}

// Verify returns nil when configPath is unpinned or matches its pin.
// On mismatch it emits a tamper event and returns a *TamperError.
func Verify(configPath string) error {
	st, err := Check(configPath)
	if err != nil {
		return err
	}
	if !st.Pinned || st.Match {
		return nil
	}

	event := TamperEvent{
		Timestamp:    time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Config:       configPath,
		ExpectedHash: st.Expected,
		ActualHash:   st.Actual,
		Type:         "config_tamper",
	}
	event.Hostname, _ = os.Hostname()
	writeTamperEvent(event)

	return &TamperError{Path: configPath, Expected: st.Expected, Actual: st.Actual}
}

// Pin writes the sidecar for configPath and returns the hash it recorded.
func Pin(configPath string) (string, error) {
	actual, err := hashFile(configPath)
	if err != nil {
		return "", fmt.Errorf("integrity: cannot hash %s: %w", configPath, err)
	}
	if err := os.WriteFile(SidecarPath(configPath), []byte(actual+"\n"), 0644); err != nil {
		return "", fmt.Errorf("integrity: write pin: %w", err)
	}
	return actual, nil
}

// loadSidecar returns the pinned hash, or "" when there is no sidecar.
// A sidecar that is not a sha256 hex digest is an error.
func loadSidecar(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("integrity: read pin: %w", err)
	}
	hash := strings.ToLower(strings.TrimSpace(string(data)))
	if len(hash) != 64 || !isHex(hash) {
		return "", fmt.Errorf("integrity: %s does not hold a sha256 hex digest", path)
	}
	return hash, nil
}

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// writeTamperEvent prints the event to stderr and, when TamperLogDir is
// set, appends it to tamper.jsonl there.
func writeTamperEvent(event TamperEvent) {
	line, err := json.Marshal(event)
	if err != nil {
		return
	}

	if TamperLogDir != "" {
		logPath := filepath.Join(TamperLogDir, "tamper.jsonl")
		if err := os.MkdirAll(TamperLogDir, 0700); err == nil {
			if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600); err == nil {
				f.Write(append(line, '\n'))
				f.Sync()
				f.Close()
			}
		}
	}

	fmt.Fprintf(os.Stderr, "TAMPER ALERT: %s\n", string(line))
}

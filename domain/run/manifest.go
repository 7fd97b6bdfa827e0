package run

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"boxmeta/domain/boxplot"
	"boxmeta/domain/core"
)

// RunFingerprint ensures deterministic replay: identical inputs, settings and
// code version produce the same fingerprint
type RunFingerprint struct {
	InputHash   core.InputHash `json:"input_hash"`
	SettingsKey string         `json:"settings"`
	CodeVersion string         `json:"code_version"`
	Fingerprint core.Hash      `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(inputHash core.InputHash, settings Settings, codeVersion string) RunFingerprint {
	key := settings.Key()
	return RunFingerprint{
		InputHash:   inputHash,
		SettingsKey: key,
		CodeVersion: codeVersion,
		Fingerprint: computeRunFingerprint(inputHash, key, codeVersion),
	}
}

// computeRunFingerprint generates deterministic hash from all determinism parameters
func computeRunFingerprint(inputHash core.InputHash, settingsKey, codeVersion string) core.Hash {
	data := fmt.Sprintf("input:%s|settings:%s|code:%s", inputHash, settingsKey, codeVersion)
	hash := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", hash))
}

// Key is a canonical rendering of the settings
func (s Settings) Key() string {
	return fmt.Sprintf("cl=%g;mode=%s;r=%g;five=%s;km=%g;ks=%g",
		s.ConfidenceLevel, s.Mode, s.Correlation, s.FiveNumber, s.MeanCoefficient, s.SDCoefficient)
}

// HashGroups fingerprints raw groups. Group order matters (it drives report
// order); field order within a record does not.
func HashGroups(groups []boxplot.RawGroup) core.InputHash {
	values := make(map[string]string)
	for gi, g := range groups {
		values[fmt.Sprintf("%04d", gi)] = fmt.Sprintf("%s|%s", g.Label, g.Role)
		for ci, c := range g.Cases {
			prefix := fmt.Sprintf("%04d/%04d", gi, ci)
			values[prefix] = string(c.Label)
			for f, raw := range c.Record {
				if v := strings.TrimSpace(raw); v != "" {
					values[prefix+"/"+string(f)] = v
				}
			}
		}
	}
	return core.ComputeInputHash(values)
}

// Validate checks if the report header is complete
func (r *Report) Validate() error {
	if core.ID(r.RunID).IsEmpty() {
		return fmt.Errorf("run report: run_id cannot be empty")
	}
	if r.Fingerprint.Fingerprint.IsEmpty() {
		return fmt.Errorf("run report: fingerprint cannot be empty")
	}
	if r.StartedAt.IsZero() || r.CompletedAt.IsZero() {
		return fmt.Errorf("run report: timestamps cannot be empty")
	}
	if r.CompletedAt.Time().Before(r.StartedAt.Time()) {
		return fmt.Errorf("run report: completed before it started")
	}
	return nil
}

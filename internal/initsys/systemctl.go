package initsys

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"
)

// Runner executes a command and returns its standard output. It is a seam
// for tests; ExecRunner is the real implementation.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs name with args and wraps failures in a BackendError that
// carries the command's stderr.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return out, &BackendError{
			Op:     name + " " + strings.Join(args, " "),
			Stderr: stderr.String(),
			Err:    err,
		}
	}
	return out, nil
}

// Systemctl drives the service manager through the systemctl binary.
type Systemctl struct {
	Binary string
	run    Runner
}

// NewSystemctl returns a systemctl client. A nil runner uses ExecRunner.
func NewSystemctl(run Runner) *Systemctl {
	if run == nil {
		run = ExecRunner
	}
	return &Systemctl{Binary: "systemctl", run: run}
}

func (s *Systemctl) systemctl(ctx context.Context, args ...string) ([]byte, error) {
	logger.Debugf("running %s %s", s.Binary, strings.Join(args, " "))
	out, err := s.run(ctx, s.Binary, args...)
	if err != nil {
		var be *BackendError
		if !errors.As(err, &be) {
			err = &BackendError{Op: s.Binary + " " + strings.Join(args, " "), Err: err}
		}
		return out, err
	}
	return out, nil
}

func (s *Systemctl) Reload(ctx context.Context) error {
	_, err := s.systemctl(ctx, "daemon-reload")
	return err
}

func (s *Systemctl) Show(ctx context.Context, unit string, props ...string) (map[string][]string, error) {
	args := []string{"show", unit}
	for _, p := range props {
		args = append(args, "-p", p)
	}
	args = append(args, "--no-pager")

	out, err := s.systemctl(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parseShow(out), nil
}

func (s *Systemctl) ListDependencies(ctx context.Context, unit string, reverse bool) ([]string, error) {
	args := []string{"list-dependencies"}
	if reverse {
		args = append(args, "--reverse")
	}
	args = append(args, unit, "--plain", "--no-pager")

	out, err := s.systemctl(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parseDependencyTree(out, unit), nil
}

// systemctlUnit is one entry of `systemctl list-units --output=json`.
type systemctlUnit struct {
	Unit        string `json:"unit"`
	Load        string `json:"load"`
	Active      string `json:"active"`
	Sub         string `json:"sub"`
	Description string `json:"description"`
}

func (s *Systemctl) UnitStates(ctx context.Context, units ...string) ([]UnitState, error) {
	if len(units) == 0 {
		return nil, nil
	}

	args := append([]string{"list-units", "--all", "--output=json", "--no-pager"}, units...)
	out, err := s.systemctl(ctx, args...)
	if err != nil {
		return nil, err
	}

	var listed []systemctlUnit
	if err := json.Unmarshal(out, &listed); err != nil {
		return nil, &BackendError{Op: "parsing systemctl list-units output", Err: err}
	}
	byName := make(map[string]systemctlUnit, len(listed))
	for _, u := range listed {
		byName[u.Unit] = u
	}

	// is-enabled exits non-zero as soon as one unit is disabled but still
	// prints one line per unit, so the output is used regardless.
	enabledOut, enabledErr := s.systemctl(ctx, append([]string{"is-enabled"}, units...)...)
	enabled := parseLines(enabledOut)
	if enabledErr != nil && len(enabled) != len(units) {
		logger.Debugf("is-enabled: %v", enabledErr)
		enabled = nil
	}

	states := make([]UnitState, 0, len(units))
	for i, name := range units {
		st := UnitState{Unit: name, Load: "not-found", Active: "inactive", Sub: "dead"}
		if u, ok := byName[name]; ok {
			st.Load, st.Active, st.Sub, st.Description = u.Load, u.Active, u.Sub, u.Description
		}
		if i < len(enabled) {
			st.Enabled = enabled[i]
		}
		states = append(states, st)
	}
	return states, nil
}

func (s *Systemctl) ListUnits(ctx context.Context, pattern string) ([]string, error) {
	loaded, err := s.systemctl(ctx, "list-units", "--all", "--type=service", "--plain", "--no-legend", "--no-pager", pattern)
	if err != nil {
		return nil, err
	}
	names := parseUnitColumn(loaded, nil)

	// list-unit-files exits non-zero when nothing matches.
	files, err := s.systemctl(ctx, "list-unit-files", "--type=service", "--no-legend", "--no-pager", pattern)
	if err != nil {
		logger.Debugf("list-unit-files: %v", err)
		return names, nil
	}
	return parseUnitColumn(files, names), nil
}

// parseUnitColumn appends the first column of each line to names, skipping
// units already present.
func parseUnitColumn(out []byte, names []string) []string {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, line := range parseLines(out) {
		fields := strings.Fields(strings.TrimLeft(line, " "+treeGlyphs))
		if len(fields) == 0 || seen[fields[0]] {
			continue
		}
		seen[fields[0]] = true
		names = append(names, fields[0])
	}
	return names
}

// parseShow parses `systemctl show -p` output: one Key=value line per
// property with space separated unit names.
func parseShow(out []byte) map[string][]string {
	props := make(map[string][]string)
	for _, line := range parseLines(out) {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		props[key] = strings.Fields(value)
	}
	return props
}

// treeGlyphs are the characters systemctl may use to draw trees and unit
// state markers in list-dependencies output.
const treeGlyphs = "├└│─●○×*"

// parseDependencyTree flattens list-dependencies output into unit names,
// dropping the root unit and duplicates while keeping order.
func parseDependencyTree(out []byte, root string) []string {
	seen := map[string]bool{root: true}
	var units []string
	for _, line := range parseLines(out) {
		name := strings.TrimSpace(strings.Trim(line, " \t"+treeGlyphs))
		if fields := strings.Fields(name); len(fields) > 0 {
			name = fields[0]
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		units = append(units, name)
	}
	return units
}

func parseLines(out []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

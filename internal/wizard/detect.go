package wizard

import (
	"os"
	"os/exec"
	"path/filepath"
)

// DetectionResult holds what was auto-detected on the system.
type DetectionResult struct {
	SystemdRunning     bool
	SystemctlAvailable bool
	D2Available        bool
	SystemdDir         string // directory holding the compose template, if found
	ProjectsDir        string // first existing projects directory, if any
}

// Detector abstracts filesystem and path lookups for testing.
type Detector interface {
	LookPath(name string) (string, error)
	Stat(path string) (os.FileInfo, error)
	UserHomeDir() (string, error)
}

// OSDetector uses the real OS for detection.
type OSDetector struct{}

func (OSDetector) LookPath(name string) (string, error) { return exec.LookPath(name) }
func (OSDetector) Stat(path string) (os.FileInfo, error) { return os.Stat(path) }
func (OSDetector) UserHomeDir() (string, error) { return os.UserHomeDir() }

// systemdRuntimeDir exists only when systemd is PID 1.
const systemdRuntimeDir = "/run/systemd/system"

var unitDirs = []string{
	"/etc/systemd/system",
	"/usr/lib/systemd/system",
	"/lib/systemd/system",
}

var projectDirs = []string{
	"/srv/compose",
	"/opt/compose",
	"/opt/stacks",
}

// Detect scans the environment for the service manager, the compose
// template and a projects directory. template is the unit file name to
// look for, e.g. docker-compose@.service.
func Detect(d Detector, template string) DetectionResult {
	if d == nil {
		d = OSDetector{}
	}

	result := DetectionResult{}

	if info, err := d.Stat(systemdRuntimeDir); err == nil && info.IsDir() {
		result.SystemdRunning = true
	}
	if _, err := d.LookPath("systemctl"); err == nil {
		result.SystemctlAvailable = true
	}
	if _, err := d.LookPath("d2"); err == nil {
		result.D2Available = true
	}

	for _, dir := range unitDirs {
		if _, err := d.Stat(filepath.Join(dir, template)); err == nil {
			result.SystemdDir = dir
			break
		}
	}

	candidates := projectDirs
	if home, err := d.UserHomeDir(); err == nil {
		candidates = append(candidates[:len(candidates):len(candidates)],
			filepath.Join(home, "compose"),
			filepath.Join(home, "docker"),
		)
	}
	for _, dir := range candidates {
		if info, err := d.Stat(dir); err == nil && info.IsDir() {
			result.ProjectsDir = dir
			break
		}
	}

	return result
}

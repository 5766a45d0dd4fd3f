// Package project locates the compose project behind a service and loads
// its compose file.
//
// A service "genai-ollama" resolves to <base>/genai/ollama when that
// directory exists, and to <base>/genai-ollama otherwise.
package project

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/compose-spec/compose-go/v2/cli"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/delfianto/compose/internal/model"
)

var logger = loggo.GetLogger("composectl.project")

// DefaultBaseDir is where compose projects live unless configured.
const DefaultBaseDir = "/srv/compose"

// ComposeFiles are the file names recognised in a project directory.
var ComposeFiles = []string{
	"docker-compose.yml",
	"docker-compose.yaml",
	"compose.yml",
	"compose.yaml",
}

// Project is a loaded compose project.
type Project struct {
	Service  model.Service
	Dir      string
	File     string
	Services []string
}

// Locator resolves services to compose project directories.
type Locator struct {
	base string
}

// NewLocator returns a Locator rooted at base.
func NewLocator(base string) *Locator {
	if base == "" {
		base = DefaultBaseDir
	}
	return &Locator{base: base}
}

// Dir returns the project directory of a service.
func (l *Locator) Dir(svc model.Service) (string, error) {
	name := strings.TrimSpace(svc.String())
	if name == "" {
		return "", errors.NotValidf("empty service name")
	}

	if strings.Contains(name, "-") {
		nested := filepath.Join(l.base, filepath.FromSlash(strings.ReplaceAll(name, "-", "/")))
		if isDir(nested) {
			return nested, nil
		}
		logger.Debugf("%s does not exist, trying %s", nested, filepath.Join(l.base, name))
	}

	direct := filepath.Join(l.base, name)
	if !isDir(direct) {
		return "", errors.NotFoundf("project directory for %s under %s", name, l.base)
	}
	return direct, nil
}

// ComposeFile returns the single compose file in dir. More than one
// candidate is an error.
func ComposeFile(dir string) (string, error) {
	var found []string
	for _, name := range ComposeFiles {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			found = append(found, name)
		}
	}
	switch len(found) {
	case 0:
		return "", errors.NotFoundf("compose file in %s", dir)
	case 1:
		return filepath.Join(dir, found[0]), nil
	}
	return "", errors.NotValidf("multiple compose files in %s (%s)", dir, strings.Join(found, ", "))
}

// Load resolves and parses the compose project of svc.
func (l *Locator) Load(ctx context.Context, svc model.Service) (*Project, error) {
	dir, err := l.Dir(svc)
	if err != nil {
		return nil, err
	}
	file, err := ComposeFile(dir)
	if err != nil {
		return nil, err
	}

	services, err := loadServices(ctx, dir, file)
	if err != nil {
		return nil, errors.Annotatef(err, "loading %s", file)
	}
	return &Project{Service: svc, Dir: dir, File: file, Services: services}, nil
}

// Check reports whether svc maps to a loadable compose project.
func (l *Locator) Check(ctx context.Context, svc model.Service) error {
	_, err := l.Load(ctx, svc)
	return err
}

func loadServices(ctx context.Context, dir, file string) ([]string, error) {
	opts, err := cli.NewProjectOptions(
		[]string{file},
		cli.WithWorkingDirectory(dir),
		cli.WithDotEnv,
		cli.WithInterpolation(false),
	)
	if err != nil {
		return nil, errors.Annotate(err, "project options")
	}

	p, err := cli.ProjectFromOptions(ctx, opts)
	if err != nil {
		logger.Debugf("compose loader rejected %s, falling back to raw parse: %v", file, err)
		return parseFallback(file)
	}

	names := p.ServiceNames()
	sort.Strings(names)
	return names, nil
}

// parseFallback reads the service names straight from the YAML document.
func parseFallback(file string) ([]string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Trace(err)
	}

	var raw struct {
		Services map[string]yamlv3.Node `yaml:"services"`
	}
	if err := yamlv3.Unmarshal(data, &raw); err != nil {
		return nil, errors.Annotate(err, "yaml parse")
	}
	if len(raw.Services) == 0 {
		return nil, errors.NotValidf("compose file %s without services", file)
	}

	names := make([]string, 0, len(raw.Services))
	for name := range raw.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

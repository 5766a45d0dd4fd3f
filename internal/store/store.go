// Package store persists dependency descriptors as systemd drop-in
// fragments, one file per source service:
//
//	<dir>/docker-compose@<service>.service.d/dependencies.conf
//
// The filesystem is the adjacency list of the dependency graph; there is no
// other database.
package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/spf13/afero"

	"github.com/delfianto/compose/internal/model"
)

var logger = loggo.GetLogger("composectl.store")

const (
	DefaultDir        = "/etc/systemd/system"
	DefaultDropInName = "dependencies.conf"

	dropInDirSuffix = ".d"
)

// Options configures a Store. Zero values fall back to the defaults.
type Options struct {
	Fs         afero.Fs
	Dir        string
	DropInName string
	Namer      model.UnitNamer
}

// Store reads and writes dependency drop-ins.
type Store struct {
	fs     afero.Fs
	dir    string
	dropIn string
	namer  model.UnitNamer
}

// New returns a Store rooted at opts.Dir.
func New(opts Options) *Store {
	s := &Store{
		fs:     opts.Fs,
		dir:    opts.Dir,
		dropIn: opts.DropInName,
		namer:  opts.Namer,
	}
	if s.fs == nil {
		s.fs = afero.NewOsFs()
	}
	if s.dir == "" {
		s.dir = DefaultDir
	}
	if s.dropIn == "" {
		s.dropIn = DefaultDropInName
	}
	return s
}

// Namer returns the unit namer used to derive file paths.
func (s *Store) Namer() model.UnitNamer { return s.namer }

// Path returns the drop-in file path for a service.
func (s *Store) Path(service string) string {
	return filepath.Join(s.dropInDir(service), s.dropIn)
}

func (s *Store) dropInDir(service string) string {
	return filepath.Join(s.dir, string(s.namer.Normalize(service))+dropInDirSuffix)
}

// Exists reports whether a descriptor file is present for service.
func (s *Store) Exists(service string) (bool, error) {
	ok, err := afero.Exists(s.fs, s.Path(service))
	return ok, errors.Trace(err)
}

// Read parses the descriptor for service. A missing file yields an empty
// descriptor.
func (s *Store) Read(service string) (model.Descriptor, error) {
	path := s.Path(service)
	f, err := s.fs.Open(path)
	if os.IsNotExist(err) {
		return model.Descriptor{}, nil
	}
	if err != nil {
		return model.Descriptor{}, errors.Annotatef(err, "opening %s", path)
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return model.Descriptor{}, errors.Annotatef(err, "parsing %s", path)
	}
	return d, nil
}

// Write replaces the descriptor for service. The content goes to a
// temporary file in the drop-in directory which is then renamed over the
// target, so readers never observe a truncated file.
func (s *Store) Write(service string, d model.Descriptor) error {
	dir := s.dropInDir(service)
	path := filepath.Join(dir, s.dropIn)

	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Annotatef(err, "creating %s", dir)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+s.dropIn+".tmp-*")
	if err != nil {
		return errors.Annotatef(err, "creating temporary file in %s", dir)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = s.fs.Remove(tmpName) }

	if _, err := tmp.Write(Serialize(d)); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Annotatef(err, "writing %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.Annotatef(err, "syncing %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Annotatef(err, "closing %s", tmpName)
	}
	if err := s.fs.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return errors.Annotatef(err, "chmod %s", tmpName)
	}
	if err := s.fs.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.Annotatef(err, "renaming %s to %s", tmpName, path)
	}

	logger.Debugf("wrote %s", path)
	return nil
}

// Delete removes the descriptor for service and, when it is left empty,
// its drop-in directory. Failing to remove the directory is not an error.
func (s *Store) Delete(service string) error {
	path := s.Path(service)
	if err := s.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Annotatef(err, "removing %s", path)
	}
	logger.Debugf("removed %s", path)

	dir := filepath.Dir(path)
	if empty, err := afero.IsEmpty(s.fs, dir); err == nil && empty {
		if err := s.fs.Remove(dir); err != nil {
			logger.Debugf("keeping %s: %v", dir, err)
		}
	}
	return nil
}

// TemplateInstalled reports whether the template unit file exists.
func (s *Store) TemplateInstalled() (bool, error) {
	ok, err := afero.Exists(s.fs, filepath.Join(s.dir, s.namer.Template()))
	return ok, errors.Trace(err)
}

// Services lists every service that currently has a descriptor, sorted.
func (s *Store) Services() ([]model.Service, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Annotatef(err, "listing %s", s.dir)
	}

	var out []model.Service
	for _, e := range entries {
		if !e.IsDir() || !strings.HasSuffix(e.Name(), dropInDirSuffix) {
			continue
		}
		unitName := strings.TrimSuffix(e.Name(), dropInDirSuffix)
		if !s.namer.Matches(unitName) {
			continue
		}
		svc := s.namer.Service(model.UnitName(unitName))
		if svc == "" {
			continue
		}
		ok, err := s.Exists(string(svc))
		if err != nil {
			return nil, errors.Trace(err)
		}
		if ok {
			out = append(out, svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Raw returns the bytes of a descriptor file, or nil if absent.
func (s *Store) Raw(service string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.Path(service))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, errors.Trace(err)
}

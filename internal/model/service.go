package model

import "strings"

// Service is the short project name of a compose deployment, e.g. "genai-ollama".
type Service string

// UnitName is the fully-qualified systemd unit instantiated from the
// compose template, e.g. "docker-compose@genai-ollama.service".
type UnitName string

func (s Service) String() string  { return string(s) }
func (u UnitName) String() string { return string(u) }

const (
	DefaultUnitPrefix = "docker-compose@"
	DefaultUnitSuffix = ".service"
)

// UnitNamer maps services to template unit names and back.
type UnitNamer struct {
	Prefix string
	Suffix string
}

// DefaultNamer uses the docker-compose@.service template convention.
var DefaultNamer = UnitNamer{Prefix: DefaultUnitPrefix, Suffix: DefaultUnitSuffix}

func (n UnitNamer) prefix() string {
	if n.Prefix == "" {
		return DefaultUnitPrefix
	}
	return n.Prefix
}

func (n UnitNamer) suffix() string {
	if n.Suffix == "" {
		return DefaultUnitSuffix
	}
	return n.Suffix
}

// Normalize canonicalizes a raw identifier into a unit name. Already
// qualified names are returned unchanged, bare names are qualified.
func (n UnitNamer) Normalize(raw string) UnitName {
	name := strings.TrimSpace(raw)
	prefix, suffix := n.prefix(), n.suffix()

	if strings.HasSuffix(name, suffix) {
		if strings.HasPrefix(name, prefix) {
			return UnitName(name)
		}
		name = strings.TrimSuffix(name, suffix)
	}
	if !strings.HasPrefix(name, prefix) {
		name = prefix + name
	}
	return UnitName(name + suffix)
}

// Service strips the template prefix and suffix from a unit name.
func (n UnitNamer) Service(unit UnitName) Service {
	s := strings.TrimSpace(string(unit))
	s = strings.TrimPrefix(s, n.prefix())
	s = strings.TrimSuffix(s, n.suffix())
	return Service(s)
}

// Matches reports whether a unit follows the template naming convention.
func (n UnitNamer) Matches(unit string) bool {
	return strings.HasPrefix(unit, n.prefix()) && strings.HasSuffix(unit, n.suffix())
}

// Template returns the name of the template unit file, e.g. "docker-compose@.service".
func (n UnitNamer) Template() string {
	return n.prefix() + n.suffix()
}

// Pattern returns a glob matching every instance of the template, e.g.
// "docker-compose@*.service".
func (n UnitNamer) Pattern() string {
	return n.prefix() + "*" + n.suffix()
}

package store

import (
	"bufio"
	"io"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"
	"github.com/juju/errors"

	"github.com/delfianto/compose/internal/model"
)

const unitSection = "Unit"

// Parse reads a dependency drop-in. Only the [Unit] section is interpreted;
// comments, unknown keys and malformed lines are skipped so that hand-edited
// files never fail to load.
func Parse(r io.Reader) (model.Descriptor, error) {
	var d model.Descriptor
	section := ""

	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadString('\n')
		if raw != "" {
			section = parseLine(&d, section, raw)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Descriptor{}, errors.Annotate(err, "reading drop-in")
		}
	}
	return d, nil
}

// parseLine applies one line to d and returns the section in effect after it.
func parseLine(d *model.Descriptor, section, raw string) string {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
		return section
	}
	if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
		return strings.Trim(line, "[]")
	}
	if section != unitSection {
		return section
	}

	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return section
	}
	dir, known := model.ParseDirective(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	if known && value != "" {
		d.Append(dir, model.UnitName(value))
	}
	return section
}

// Serialize renders a descriptor in canonical form: the [Unit] header, then
// all Requires, Wants and After lines, each group in insertion order.
func Serialize(d model.Descriptor) []byte {
	var opts []*unit.UnitOption
	for _, dir := range model.Directives {
		for _, u := range d.List(dir) {
			opts = append(opts, unit.NewUnitOption(unitSection, string(dir), string(u)))
		}
	}
	if len(opts) == 0 {
		return []byte("[" + unitSection + "]\n")
	}

	data, _ := io.ReadAll(unit.Serialize(opts))
	return data
}

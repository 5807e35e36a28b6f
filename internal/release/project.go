// Package release decides whether a project version may be released,
// publishes it and bumps the version afterwards.
package release

import (
	"fmt"
	"path/filepath"

	"github.com/inovacc/datapull/internal/tomlfile"
)

// PyprojectFile is the project metadata file in the project root.
const PyprojectFile = "pyproject.toml"

// Project is the package identity read from pyproject.toml.
type Project struct {
	Dir     string
	Path    string
	Name    string
	Version string

	// Poetry is set when the metadata came from [tool.poetry].
	Poetry bool
}

// LoadProject reads dir/pyproject.toml. [project] wins over [tool.poetry].
func LoadProject(dir string) (*Project, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, PyprojectFile)

	doc, err := tomlfile.Load(path)
	if err != nil {
		return nil, err
	}

	p := &Project{Dir: dir, Path: path}

	for _, section := range [][]string{{"project"}, {"tool", "poetry"}} {
		table := tomlfile.GetTable(doc, section)
		if table == nil {
			continue
		}

		name, _ := table["name"].(string)
		version, _ := table["version"].(string)

		if name == "" {
			continue
		}

		p.Name = name
		p.Version = version
		p.Poetry = section[0] == "tool"

		break
	}

	if p.Name == "" {
		return nil, fmt.Errorf("%s has no [project] or [tool.poetry] name", path)
	}

	if p.Version == "" {
		return nil, fmt.Errorf("%s declares no static version for %s", path, p.Name)
	}

	return p, nil
}

// Tag is the git tag for the current version.
func (p *Project) Tag() string {
	return "v" + p.Version
}

// VersionKey is the key chain holding the version.
func (p *Project) VersionKey() []string {
	if p.Poetry {
		return []string{"tool", "poetry", "version"}
	}

	return []string{"project", "version"}
}

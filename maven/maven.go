// Package maven converts Maven artifact coordinates into repository paths.
package maven

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

var ErrBadCoordinate = errors.New("bad maven coordinate")

const defaultExtension = "jar"

// Coordinate is a parsed group:name:version[:classifier][@extension].
type Coordinate struct {
	Group      string
	Name       string
	Version    string
	Classifier string
	Extension  string
}

func Parse(s string) (Coordinate, error) {
	var c Coordinate
	coord, ext := s, defaultExtension
	if i := strings.LastIndexByte(s, '@'); i >= 0 {
		coord, ext = s[:i], s[i+1:]
	}
	parts := strings.Split(coord, ":")
	switch len(parts) {
	case 3:
	case 4:
		c.Classifier = parts[3]
	default:
		return c, fmt.Errorf("%w: %q", ErrBadCoordinate, s)
	}
	c.Group, c.Name, c.Version, c.Extension = parts[0], parts[1], parts[2], ext
	for _, p := range append(parts, ext) {
		if !validPart(p) {
			return Coordinate{}, fmt.Errorf("%w: %q", ErrBadCoordinate, s)
		}
	}
	return c, nil
}

func validPart(p string) bool {
	if p == "" || p == "." || p == ".." {
		return false
	}
	return !strings.ContainsAny(p, `/\`)
}

// File returns the artifact file name, e.g. name-1.0-sources.jar.
func (c Coordinate) File() string {
	base := fmt.Sprintf("%s-%s", c.Name, c.Version)
	if c.Classifier != "" {
		base += "-" + c.Classifier
	}
	return base + "." + c.Extension
}

// Path returns the repository-relative path of the artifact.
func (c Coordinate) Path() string {
	group := strings.ReplaceAll(c.Group, ".", "/")
	return path.Join(group, c.Name, c.Version, c.File())
}

func (c Coordinate) String() string {
	s := strings.Join([]string{c.Group, c.Name, c.Version}, ":")
	if c.Classifier != "" {
		s += ":" + c.Classifier
	}
	if c.Extension != defaultExtension {
		s += "@" + c.Extension
	}
	return s
}

// Path parses s and returns its repository-relative path.
func Path(s string) (string, error) {
	c, err := Parse(s)
	if err != nil {
		return "", err
	}
	return c.Path(), nil
}

// URL joins a repository base URL and the path of coordinate s.
func URL(base, s string) (string, error) {
	p, err := Path(s)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(base, "/") + "/" + p, nil
}

// Package manifest loads unit definitions from YAML or TOML files and turns
// them into runtime units.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/GoCodeAlone/mfe"
	"github.com/GoCodeAlone/mfe/feeders"
)

// Static errors for manifest loading
var (
	ErrUnknownKind  = errors.New("unknown unit kind")
	ErrNoRoutes     = errors.New("application declares no routes")
	ErrInvalidRoute = errors.New("route must start with '/'")
)

// Manifest lists the units a host page is composed of.
type Manifest struct {
	Units []UnitSpec `yaml:"units" toml:"units"`
}

// UnitSpec describes one unit.
type UnitSpec struct {
	Name string `yaml:"name" toml:"name"`

	// Kind is "application" (default) or "parcel".
	Kind string `yaml:"kind" toml:"kind"`

	// Routes are path prefixes an application is active under.
	Routes []string `yaml:"routes" toml:"routes"`

	// Exact requires the path to equal one of the routes.
	Exact bool `yaml:"exact" toml:"exact"`
}

// Load reads a manifest file. The format is chosen by extension.
func Load(path string) (*Manifest, error) {
	feeder, err := feeders.ForFile(path)
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := feeder.Feed(m); err != nil {
		return nil, fmt.Errorf("failed to load manifest %s: %w", path, err)
	}
	return m, nil
}

// Build creates a unit for every entry, in manifest order.
func (m *Manifest) Build() ([]*mfe.Unit, error) {
	units := make([]*mfe.Unit, 0, len(m.Units))
	for i, spec := range m.Units {
		u, err := spec.Build()
		if err != nil {
			return nil, fmt.Errorf("unit %d (%s): %w", i, spec.Name, err)
		}
		units = append(units, u)
	}
	return units, nil
}

// Build creates the unit described by s.
func (s UnitSpec) Build() (*mfe.Unit, error) {
	switch strings.ToLower(s.Kind) {
	case "", "application":
		if len(s.Routes) == 0 {
			return nil, ErrNoRoutes
		}
		for _, route := range s.Routes {
			if !strings.HasPrefix(route, "/") {
				return nil, fmt.Errorf("%w: %q", ErrInvalidRoute, route)
			}
		}
		return mfe.NewApplication(s.Name, PrefixActivity(s.Routes, s.Exact))
	case "parcel":
		return mfe.NewParcel(s.Name, func(context.Context) error { return nil })
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
	}
}

// Populate builds the manifest's units and adds them to rt.
func (m *Manifest) Populate(rt *mfe.Runtime) error {
	units, err := m.Build()
	if err != nil {
		return err
	}
	for _, u := range units {
		if err := rt.Add(u); err != nil {
			return err
		}
	}
	return nil
}

// PrefixActivity returns an activeWhen predicate matching the location path
// against route prefixes on segment boundaries. With exact set, the path
// must equal a route, ignoring a trailing slash.
func PrefixActivity(routes []string, exact bool) mfe.ActivityFunc {
	normalized := make([]string, len(routes))
	for i, route := range routes {
		normalized[i] = strings.TrimSuffix(route, "/")
	}

	return func(loc *url.URL) (bool, error) {
		if loc == nil {
			return false, nil
		}
		path := strings.TrimSuffix(loc.Path, "/")
		for _, route := range normalized {
			if path == route {
				return true, nil
			}
			if !exact && (route == "" || strings.HasPrefix(path, route+"/")) {
				return true, nil
			}
		}
		return false, nil
	}
}

// Sync replaces the units registered in rt with the manifest's units. The
// manifest is built first, so rt is left untouched when it is invalid.
func Sync(rt *mfe.Runtime, m *Manifest) error {
	units, err := m.Build()
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(units))
	for _, u := range units {
		if seen[u.Name()] {
			return fmt.Errorf("%w: %s", mfe.ErrUnitAlreadyRegistered, u.Name())
		}
		seen[u.Name()] = true
	}

	for _, u := range rt.Units() {
		rt.Remove(u.Name())
	}
	for _, u := range units {
		if err := rt.Add(u); err != nil {
			return err
		}
	}
	return nil
}

package guard

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/jrsteele09/spares-console/internal/utils"
	"gopkg.in/yaml.v3"
)

// Paths the guard and the error routes use.
const (
	PathHome               = "/"
	PathUnauthorized       = "/unauthorized"
	PathForbidden          = "/forbidden"
	PathNotFound           = "/not-found"
	PathServerError        = "/server-error"
	PathServiceUnavailable = "/service-unavailable"

	NameNotFound = "404"
)

// Meta is the requirement metadata declared on a route. RequiresAuth is a pointer so a
// child can turn off what a parent turned on.
type Meta struct {
	RequiresAuth       *bool `yaml:"requiresAuth,omitempty" json:"requiresAuth,omitempty"`
	RequiresPermission Names `yaml:"requiresPermission,omitempty" json:"requiresPermission,omitempty"`
	RequiresRole       Names `yaml:"requiresRole,omitempty" json:"requiresRole,omitempty"`
}

func (m Meta) NeedsAuth() bool {
	return utils.Value(m.RequiresAuth)
}

// merge overlays child onto m, the child wins for every field it declares.
func (m Meta) merge(child Meta) Meta {
	out := m
	if child.RequiresAuth != nil {
		out.RequiresAuth = utils.Ptr(*child.RequiresAuth)
	}
	if child.RequiresPermission.Declared() {
		out.RequiresPermission = child.RequiresPermission
	}
	if child.RequiresRole.Declared() {
		out.RequiresRole = child.RequiresRole
	}
	return out
}

type Route struct {
	Name     string  `yaml:"name,omitempty"`
	Path     string  `yaml:"path"`
	Meta     Meta    `yaml:"meta,omitempty"`
	Children []Route `yaml:"children,omitempty"`
}

// Location is a resolved navigation target.
type Location struct {
	Path   string
	Name   string
	Meta   Meta
	Params map[string]string
}

type entry struct {
	name     string
	pattern  string
	segments []string
	meta     Meta
}

// Table resolves paths to routes. Paths are matched segment by segment, ":name" segments
// capture a parameter, and the first registered match wins.
type Table struct {
	entries []entry
}

// NewTable flattens routes. Children are registered before their parent, relative child
// paths are joined onto the parent path and parent meta is inherited. Parents without a
// name only group their children.
func NewTable(routes []Route) *Table {
	t := &Table{}
	for _, r := range routes {
		t.add(r, "/", Meta{})
	}
	return t
}

func (t *Table) add(r Route, parentPath string, parentMeta Meta) {
	full := r.Path
	if !strings.HasPrefix(full, "/") {
		full = path.Join(parentPath, full)
	}
	full = cleanPath(full)
	meta := parentMeta.merge(r.Meta)

	for _, child := range r.Children {
		t.add(child, full, meta)
	}
	if len(r.Children) > 0 && r.Name == "" {
		return
	}
	t.entries = append(t.entries, entry{
		name:     r.Name,
		pattern:  full,
		segments: split(full),
		meta:     meta,
	})
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	p = path.Clean("/" + p)
	return p
}

func split(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// Resolve finds the route for p. Unknown paths resolve to the catch-all 404 location.
func (t *Table) Resolve(p string) Location {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = cleanPath(p)
	segs := split(p)

	for _, e := range t.entries {
		if params, ok := match(e.segments, segs); ok {
			return Location{Path: p, Name: e.name, Meta: e.meta, Params: params}
		}
	}
	return Location{Path: p, Name: NameNotFound}
}

// Lookup returns the pattern registered under name.
func (t *Table) Lookup(name string) (string, bool) {
	for _, e := range t.entries {
		if e.name == name {
			return e.pattern, true
		}
	}
	return "", false
}

// Patterns lists every registered pattern in resolution order.
func (t *Table) Patterns() []string {
	out := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.pattern)
	}
	return out
}

func match(pattern, segs []string) (map[string]string, bool) {
	if len(pattern) != len(segs) {
		return nil, false
	}
	var params map[string]string
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if params == nil {
				params = make(map[string]string)
			}
			params[p[1:]] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, false
		}
	}
	return params, true
}

// DefaultRoutes is the console's route table: error pages, the login page, the
// dashboard pages and the landing page.
func DefaultRoutes() []Route {
	return []Route{
		{
			Name: "error",
			Path: "/error",
			Children: []Route{
				{Name: "unauthorized", Path: PathUnauthorized},
				{Name: "forbidden", Path: PathForbidden},
				{Name: "not-found", Path: PathNotFound},
				{Name: "server-error", Path: PathServerError},
				{Name: "service-unavailable", Path: PathServiceUnavailable},
			},
		},
		{
			Path: "/auth",
			Meta: Meta{RequiresAuth: utils.Ptr(false)},
			Children: []Route{
				{Name: "login", Path: "/"},
			},
		},
		{
			Path: "/",
			Meta: Meta{RequiresAuth: utils.Ptr(true)},
			Children: []Route{
				{Name: "Dashboard", Path: "dashboard"},
				{Name: "Roles & Permissions", Path: "roles-permissions"},
				{Name: "Vendor Profile", Path: "/vendor-profile"},
				{Name: "Pickup Points", Path: "pickup-points"},
				{Name: "Vendor Parts", Path: "vendor-parts"},
				{Name: "Parts", Path: "parts"},
				{Name: "Part Categories", Path: "part-categories"},
			},
		},
		{Name: "Landing", Path: PathHome, Meta: Meta{RequiresAuth: utils.Ptr(false)}},
	}
}

type routesFile struct {
	Routes []Route `yaml:"routes"`
}

// LoadRoutes reads a YAML route manifest with a top level "routes" list.
func LoadRoutes(r io.Reader) ([]Route, error) {
	var f routesFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("[guard LoadRoutes] failed to decode routes: %w", err)
	}
	if len(f.Routes) == 0 {
		return nil, fmt.Errorf("[guard LoadRoutes] manifest declares no routes")
	}
	return f.Routes, nil
}

// LoadRoutesFile is LoadRoutes for a file on disk.
func LoadRoutesFile(name string) ([]Route, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("[guard LoadRoutesFile] %w", err)
	}
	defer f.Close()
	return LoadRoutes(f)
}

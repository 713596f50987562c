package domain

import "strings"

const RootPath = "/"

type RouteMeta struct {
	RequiresAuth bool
}

type Route struct {
	Path string
	Name string
	Meta RouteMeta
}

// Match reports whether path resolves to the route and returns the values of
// any ":param" segments.
func (r Route) Match(path string) (map[string]string, bool) {
	want := splitPath(r.Path)
	got := splitPath(path)
	if len(want) != len(got) {
		return nil, false
	}

	var params map[string]string
	for i, segment := range want {
		if strings.HasPrefix(segment, ":") {
			if got[i] == "" {
				return nil, false
			}
			if params == nil {
				params = map[string]string{}
			}
			params[segment[1:]] = got[i]
			continue
		}
		if segment != got[i] {
			return nil, false
		}
	}

	return params, true
}

// NormalizePath strips query and trailing slashes so "/gallery/" and
// "/gallery?x=1" resolve like "/gallery".
func NormalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = RootPath
		}
	}
	return path
}

func splitPath(path string) []string {
	trimmed := strings.Trim(NormalizePath(path), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

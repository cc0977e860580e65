package managed

import (
	"path"
	"strings"

	"github.com/sectrean/filter-kit/internal/errors"
)

type patternKind uint8

const (
	matchAll patternKind = iota
	matchExact
	matchPrefix
	matchSuffix
	matchGlob
)

// uriPattern is a servlet-style URL pattern used to select filters.
type uriPattern struct {
	raw   string
	value string
	kind  patternKind
}

func parsePattern(p string) (uriPattern, error) {
	switch {
	case p == "":
		return uriPattern{}, errors.New("pattern is empty")
	case p == "/*" || p == "*":
		return uriPattern{raw: p, kind: matchAll}, nil
	case strings.HasPrefix(p, "*."):
		return uriPattern{raw: p, kind: matchSuffix, value: p[1:]}, nil
	case !strings.HasPrefix(p, "/"):
		return uriPattern{}, errors.Errorf("pattern %q must begin with '/' or '*.'", p)
	case strings.HasSuffix(p, "/*") && !strings.ContainsAny(p[:len(p)-2], "*?["):
		return uriPattern{raw: p, kind: matchPrefix, value: p[:len(p)-2]}, nil
	case strings.ContainsAny(p, "*?["):
		if _, err := path.Match(p, "/"); err != nil {
			return uriPattern{}, errors.Wrapf(err, "pattern %q", p)
		}
		return uriPattern{raw: p, kind: matchGlob, value: p}, nil
	default:
		return uriPattern{raw: p, kind: matchExact, value: p}, nil
	}
}

func (p uriPattern) matches(urlPath string) bool {
	switch p.kind {
	case matchAll:
		return true
	case matchExact:
		return urlPath == p.value
	case matchPrefix:
		return urlPath == p.value || strings.HasPrefix(urlPath, p.value+"/")
	case matchSuffix:
		return strings.HasSuffix(urlPath, p.value)
	case matchGlob:
		ok, _ := path.Match(p.value, urlPath)
		return ok
	default:
		return false
	}
}

func (p uriPattern) String() string {
	return p.raw
}

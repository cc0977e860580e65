package managed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parsePattern(t *testing.T) {
	tests := []struct {
		pattern string
		match   []string
		noMatch []string
	}{
		{
			pattern: "/*",
			match:   []string{"/", "/a", "/a/b"},
		},
		{
			pattern: "/api/*",
			match:   []string{"/api", "/api/", "/api/items/1"},
			noMatch: []string{"/apix", "/", "/other/api"},
		},
		{
			pattern: "*.json",
			match:   []string{"/a.json", "/x/y/z.json"},
			noMatch: []string{"/a.jsonp", "/json"},
		},
		{
			pattern: "/health",
			match:   []string{"/health"},
			noMatch: []string{"/health/", "/healthz"},
		},
		{
			pattern: "/v?/items",
			match:   []string{"/v1/items", "/v2/items"},
			noMatch: []string{"/v10/items", "/v1/items/3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := parsePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.pattern, p.String())

			for _, path := range tt.match {
				assert.True(t, p.matches(path), "expected %s to match %s", tt.pattern, path)
			}
			for _, path := range tt.noMatch {
				assert.False(t, p.matches(path), "expected %s not to match %s", tt.pattern, path)
			}
		})
	}
}

func Test_parsePattern_Invalid(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{pattern: "", want: "pattern is empty"},
		{pattern: "api/*", want: `pattern "api/*" must begin with '/' or '*.'`},
		{pattern: "/a/[", want: `pattern "/a/[": syntax error in pattern`},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			_, err := parsePattern(tt.pattern)
			assert.EqualError(t, err, tt.want)
		})
	}
}

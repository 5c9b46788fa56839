package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docstack/docsearch/internal/search"
)

func TestBuildKeyCanonicalises(t *testing.T) {
	a := buildKey("Energy Policy", search.Options{Categories: []string{"b", "a"}, Tags: []string{"y", "x"}})
	b := buildKey("  energy policy ", search.Options{Categories: []string{"a", "b"}, Tags: []string{"x", "y"}})
	assert.Equal(t, a, b, "parameter order and query casing must not fragment the cache")
}

func TestBuildKeyDistinguishesOptions(t *testing.T) {
	base := buildKey("energy", search.Options{})
	assert.NotEqual(t, base, buildKey("water", search.Options{}))
	assert.NotEqual(t, base, buildKey("energy", search.Options{Fuzzy: true}))
	assert.NotEqual(t, base, buildKey("energy", search.Options{Limit: 5}))
	assert.NotEqual(t, base, buildKey("energy", search.Options{Categories: []string{"guides"}}))
}

func TestBuildKeyPrefix(t *testing.T) {
	key := buildKey("energy", search.Options{})
	assert.True(t, strings.HasPrefix(key, keyPrefix))
}

func TestBuildKeyDoesNotMutateOptions(t *testing.T) {
	opts := search.Options{Categories: []string{"z", "a"}}
	buildKey("q", opts)
	assert.Equal(t, []string{"z", "a"}, opts.Categories)
}

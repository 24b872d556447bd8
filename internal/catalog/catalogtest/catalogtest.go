// Package catalogtest provides a parsed sample catalog for tests.
package catalogtest

import (
	_ "embed"
	"testing"

	"github.com/nadzzz/roomcall/internal/catalog"
)

//go:embed sample.yaml
var sample []byte

// Sample returns a freshly parsed copy of the sample catalog.
func Sample(tb testing.TB) *catalog.Catalog {
	tb.Helper()
	c, err := catalog.Parse(sample)
	if err != nil {
		tb.Fatalf("parsing sample catalog: %v", err)
	}
	return c
}

// Bytes returns the raw sample catalog YAML.
func Bytes() []byte {
	out := make([]byte, len(sample))
	copy(out, sample)
	return out
}

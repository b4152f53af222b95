package util

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetenv(t *testing.T) {
	a := assert.New(t)

	_, found := os.LookupEnv("HEADSUP_TEST_FOO")
	a.False(found)
	a.Equal("default", Getenv("HEADSUP_TEST_FOO", "default"))

	t.Setenv("HEADSUP_TEST_FOO", "bar")
	a.Equal("bar", Getenv("HEADSUP_TEST_FOO", "default"))

	t.Setenv("HEADSUP_TEST_FOO", "")
	a.Equal("default", Getenv("HEADSUP_TEST_FOO", "default"))
}

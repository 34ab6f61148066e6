package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPort(t *testing.T) {
	t.Setenv("TEST_PORT", "")
	p, err := Port("TEST_PORT", "8080")
	require.NoError(t, err)
	assert.Equal(t, "8080", p)

	t.Setenv("TEST_PORT", "70000")
	_, err = Port("TEST_PORT", "8080")
	require.Error(t, err)
}

func TestTypedValues(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_LIST", " a, ,b,")

	n, err := Int("TEST_INT", 1)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	d, err := Duration("TEST_DURATION", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	b, err := Bool("TEST_BOOL", false)
	require.NoError(t, err)
	assert.True(t, b)

	assert.Equal(t, []string{"a", "b"}, List("TEST_LIST"))

	t.Setenv("TEST_INT", "many")
	_, err = Int("TEST_INT", 1)
	require.Error(t, err)

	t.Setenv("TEST_DURATION", "-1s")
	_, err = Duration("TEST_DURATION", time.Second)
	require.Error(t, err)
}

func TestRequiredString(t *testing.T) {
	t.Setenv("TEST_REQUIRED", "")
	_, err := RequiredString("TEST_REQUIRED")
	require.Error(t, err)
}

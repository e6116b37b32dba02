package mcp

import (
	"testing"

	"github.com/rpay/antigravity-gateway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWebReaderURLOffIsIdentity(t *testing.T) {
	got, err := NormalizeWebReaderURL("https://ex.com/p?utm_source=x", config.URLNormOff)
	require.NoError(t, err)
	assert.Equal(t, "https://ex.com/p?utm_source=x", got)
}

func TestNormalizeWebReaderURLStripTrackingQuery(t *testing.T) {
	got, err := NormalizeWebReaderURL("https://ex.com/p?utm_source=x&id=7", config.URLNormStripTrackingQuery)
	require.NoError(t, err)
	assert.Equal(t, "https://ex.com/p?id=7", got)
}

func TestNormalizeWebReaderURLStripTrackingQueryEmptiesQuery(t *testing.T) {
	got, err := NormalizeWebReaderURL("https://ex.com/p?utm_source=x&gclid=y", config.URLNormStripTrackingQuery)
	require.NoError(t, err)
	assert.Equal(t, "https://ex.com/p", got)
}

func TestNormalizeWebReaderURLStripQuery(t *testing.T) {
	got, err := NormalizeWebReaderURL("https://ex.com/p?id=7&other=1", config.URLNormStripQuery)
	require.NoError(t, err)
	assert.Equal(t, "https://ex.com/p", got)
}

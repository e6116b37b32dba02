package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVisionClient struct {
	calls []Endpoint
	fail  map[Endpoint]error
}

func (f *fakeVisionClient) Call(ctx context.Context, endpoint Endpoint, model, prompt, dataURI string) (string, error) {
	f.calls = append(f.calls, endpoint)
	if err, ok := f.fail[endpoint]; ok {
		return "", err
	}
	return "described", nil
}

func writeTempImage(t *testing.T, size int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.png")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func TestToolRegistryUnknownToolReturnsError(t *testing.T) {
	r := NewToolRegistry(&fakeVisionClient{}, false)
	result := r.Call(context.Background(), ToolCallParams{Name: "not_a_tool"})
	assert.True(t, result.IsError)
}

func TestToolRegistryOversizeImageYieldsToolError(t *testing.T) {
	path := writeTempImage(t, maxImageBytes+1)
	r := NewToolRegistry(&fakeVisionClient{}, false)
	result := r.Call(context.Background(), ToolCallParams{
		Name:      "analyze_image",
		Arguments: map[string]any{"path": path},
	})
	assert.True(t, result.IsError)
}

func TestToolRegistrySuccessUsesGeneralEndpointWithoutCodingEntitlement(t *testing.T) {
	path := writeTempImage(t, 10)
	client := &fakeVisionClient{}
	r := NewToolRegistry(client, false)
	result := r.Call(context.Background(), ToolCallParams{
		Name:      "analyze_image",
		Arguments: map[string]any{"path": path},
	})
	require.False(t, result.IsError)
	assert.Equal(t, []Endpoint{EndpointGeneral}, client.calls)
}

type fallbackErr struct{ fallback bool }

func (e fallbackErr) Error() string           { return "coding endpoint unavailable" }
func (e fallbackErr) FallbackToGeneral() bool { return e.fallback }

func TestToolRegistryFallsBackToGeneralOnRetryableError(t *testing.T) {
	path := writeTempImage(t, 10)
	client := &fakeVisionClient{fail: map[Endpoint]error{EndpointCoding: fallbackErr{fallback: true}}}
	r := NewToolRegistry(client, true)
	result := r.Call(context.Background(), ToolCallParams{
		Name:      "analyze_image",
		Arguments: map[string]any{"path": path},
	})
	require.False(t, result.IsError)
	assert.Equal(t, []Endpoint{EndpointCoding, EndpointGeneral}, client.calls)
}

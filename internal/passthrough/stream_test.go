package passthrough

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeStreamRewritesBareError(t *testing.T) {
	in := "event: error\ndata: {\"message\":\"x\"}\n\n"
	var out bytes.Buffer
	require.NoError(t, NormalizeStream(&out, strings.NewReader(in)))

	got := out.String()
	assert.Contains(t, got, `"type":"error"`)
	assert.Contains(t, got, `"message":"x"`)
}

func TestNormalizeStreamConvertsDoneToMessageStop(t *testing.T) {
	in := "data: [DONE]\n\n"
	var out bytes.Buffer
	require.NoError(t, NormalizeStream(&out, strings.NewReader(in)))
	got := out.String()
	assert.Contains(t, got, "message_stop")
	assert.NotContains(t, got, "[DONE]")
	// [DONE] already synthesized the terminator; EOF must not add a second one.
	assert.Equal(t, 1, strings.Count(got, "event: message_stop"))
}

func TestNormalizeStreamPassesOtherEventsThrough(t *testing.T) {
	in := "event: content_block_delta\ndata: {\"type\":\"content_block_delta\"}\n\n"
	var out bytes.Buffer
	require.NoError(t, NormalizeStream(&out, strings.NewReader(in)))
	assert.Equal(t, in+"event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n", out.String())
}

func TestNormalizeStreamLeavesTypedErrorAlone(t *testing.T) {
	in := "event: error\ndata: {\"type\":\"error\",\"error\":{\"message\":\"x\"}}\n\n"
	var out bytes.Buffer
	require.NoError(t, NormalizeStream(&out, strings.NewReader(in)))
	assert.Equal(t, in+"event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n", out.String())
}

func TestNormalizeStreamEmitsMessageStopOnBareCloseAfterError(t *testing.T) {
	in := "event: error\ndata: {\"message\":\"upstream down\"}\n\n"
	var out bytes.Buffer
	require.NoError(t, NormalizeStream(&out, strings.NewReader(in)))
	got := out.String()
	assert.Contains(t, got, `"type":"error"`)
	assert.True(t, strings.HasSuffix(got, "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n"))
}

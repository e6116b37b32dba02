package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordAndActive(t *testing.T) {
	tr := &Tracker{entries: make(map[entryKey]Entry)}

	assert.False(t, tr.Active("acc1", "gemini-3-pro-high"))

	tr.Record("acc1", "gemini-3-pro-high", ReasonRateLimitExceeded, time.Now().Add(time.Minute))
	assert.True(t, tr.Active("acc1", "gemini-3-pro-high"))
	assert.False(t, tr.Active("acc1", "gemini-3-flash"))
}

func TestSweepEvictsExpired(t *testing.T) {
	tr := &Tracker{entries: make(map[entryKey]Entry)}
	tr.Record("acc1", "gemini-3-flash", ReasonServerError, time.Now().Add(-time.Second))

	tr.sweep()
	assert.False(t, tr.Active("acc1", "gemini-3-flash"))
}

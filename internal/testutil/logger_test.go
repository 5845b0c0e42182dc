package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCaptureLogger(t *testing.T) {
	logger, logs := NewCaptureLogger(t)
	logger.Debug("opened store", "driver", "sqlite")
	logger.Error("failed to update record", "view", "Users", "pk", 3)

	assert.True(t, logs.Contains("level=DEBUG", `msg="opened store"`, "driver=sqlite"))
	assert.True(t, logs.Contains("level=ERROR", "view=Users", "pk=3"))
	assert.False(t, logs.Contains("driver=sqlite", "view=Users"), "fragments must share a line")
	assert.False(t, logs.Contains("missing"))
}

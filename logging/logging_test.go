package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/warp/loan-insights/config"
	"github.com/warp/loan-insights/logging"
)

func TestNew_AppliesLevel(t *testing.T) {
	logger, err := logging.New(config.LoggingConfig{Level: "warn"})

	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}

func TestNew_Development(t *testing.T) {
	logger, err := logging.New(config.LoggingConfig{Level: "debug", Development: true})

	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := logging.New(config.LoggingConfig{Level: "loud"})

	assert.Error(t, err)
}

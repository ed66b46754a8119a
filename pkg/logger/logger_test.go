package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "short", MaskToken("short"))
	assert.Equal(t, "abcdefghijklmnopqrst...", MaskToken("abcdefghijklmnopqrstuvwxyz"))
}

func TestSetupFallsBackToInfo(t *testing.T) {
	Setup("chatty", "text")
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())

	Setup("debug", "json")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	_, isJSON := logrus.StandardLogger().Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)

	Setup("info", "text")
}

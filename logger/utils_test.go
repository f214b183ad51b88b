package L

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanReadableBytes(t *testing.T) {
	assert.Equal(t, "0 B", HumanReadableBytes(0, 2))
	assert.Equal(t, "512.0B", HumanReadableBytes(512, 1))
	assert.Equal(t, "1.0KB", HumanReadableBytes(1024, 1))
	assert.Equal(t, "5.00MB", HumanReadableBytes(5*1024*1024, 2))
	assert.Equal(t, "1.50GB", HumanReadableBytes(3*1024*1024*1024/2, 2))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, 24, len([]rune(ProgressBar(0))))
	assert.Equal(t, 24, len([]rune(ProgressBar(50))))
	assert.Equal(t, 24, len([]rune(ProgressBar(100))))
	// out of range input clamps instead of panicking
	assert.Equal(t, ProgressBar(0), ProgressBar(-10))
	assert.Equal(t, ProgressBar(100), ProgressBar(250))
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10, TRUNC_RIGHT))
	assert.Equal(t, "abcdefg...", TruncateString("abcdefghijklmn", 10, TRUNC_RIGHT))
	assert.Equal(t, "...hijklmn", TruncateString("abcdefghijklmn", 10, TRUNC_LEFT))
	assert.Equal(t, "abc...lmn", TruncateString("abcdefghijklmn", 9, TRUNC_CENTER))
	assert.Equal(t, "", TruncateString("anything", -1, TRUNC_RIGHT))
	assert.Equal(t, "..", TruncateString("anything", 2, TRUNC_RIGHT))
}

func TestLogLevelStringRoundTrips(t *testing.T) {
	for _, l := range []LogLevel{DEBUG, INFO, WARN, ERROR, PANIC, SILENT} {
		assert.NoError(t, SetLevelFromString(l.String()))
		assert.Equal(t, l, GetLogLevel())
	}
	SetLevel(INFO)
}

func TestHumanReadableTime(t *testing.T) {
	assert.Equal(t, "0s", HumanReadableTime(0))
	assert.Equal(t, "500ms", HumanReadableTime(500))
	assert.Equal(t, "5s", HumanReadableTime(5000))
	assert.Equal(t, "1m 5s", HumanReadableTime(65000))
	assert.Equal(t, "1h 5m", HumanReadableTime(3900000))
	assert.Equal(t, "-5s", HumanReadableTime(-5000))
}

package logger

import (
	"bytes"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainFormatter(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	cases := []struct {
		name    string
		data    logrus.Fields
		message string
		want    string
	}{
		{
			name:    "component and fields",
			data:    logrus.Fields{"component": "scheduler", "generation": 3, "query": "foo"},
			message: "run delivered",
			want:    "[2025-01-02T03:04:05Z] [INFO] [scheduler] run delivered generation=3 query=foo\n",
		},
		{
			name:    "no component",
			data:    logrus.Fields{},
			message: "hello",
			want:    "[2025-01-02T03:04:05Z] [INFO] hello\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entry := &logrus.Entry{
				Logger:  logrus.New(),
				Time:    ts,
				Level:   logrus.InfoLevel,
				Message: tc.message,
				Data:    tc.data,
			}
			out, err := (PlainFormatter{}).Format(entry)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(out))
		})
	}
}

func TestNamedWritesComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	l := logrus.New()
	l.SetOutput(buf)
	l.SetFormatter(PlainFormatter{})
	SetRoot(l)
	defer SetRoot(nil)

	Named("walker").WithField("root", "/tmp").Info("walk started")

	assert.Contains(t, buf.String(), "[walker] walk started root=/tmp")
}

func TestConfigureRejectsBadLevel(t *testing.T) {
	SetRoot(logrus.New())
	defer SetRoot(nil)

	require.Error(t, Configure("loud"))
	require.NoError(t, Configure("debug"))
	assert.Equal(t, logrus.DebugLevel, Root().GetLevel())
}

func TestSetupFileCreatesDirectories(t *testing.T) {
	SetRoot(logrus.New())
	defer SetRoot(nil)

	path := filepath.Join(t.TempDir(), "logs", "filegrip.log")
	closer, resolved, err := SetupFile(path)
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, path, resolved)
	assert.FileExists(t, path)
}

func TestDefaultLogPathIsInCacheDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CACHE_HOME is only honoured on linux")
	}
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)

	assert.Equal(t, filepath.Join(cache, "filegrip", "filegrip.log"), DefaultLogPath())
}

package logging_test

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/SoftengPoliTo/manifest-producer/internal/logging"
)

func TestNewParsesKnownLevels(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"info":  zerolog.InfoLevel,
		"warn":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"bogus": zerolog.InfoLevel,
		"":      zerolog.InfoLevel,
	}
	for name, want := range cases {
		if got := logging.New(name).GetLevel(); got != want {
			t.Errorf("level %q: got %v, want %v", name, got, want)
		}
	}
}

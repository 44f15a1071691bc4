package langdetect_test

import (
	"testing"

	"github.com/SoftengPoliTo/manifest-producer/internal/langdetect"
)

func TestDetectNilDataIsUnknown(t *testing.T) {
	if got := langdetect.Detect(nil); got != langdetect.Unknown {
		t.Fatalf("expected Unknown for nil DWARF data, got %q", got)
	}
}

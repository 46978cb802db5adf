package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"factorynet/internal/episode"
)

// WriteJSONL writes one JSON document per raw episode to path, followed by
// any extra raw lines verbatim. Extra lines let tests inject malformed input.
func WriteJSONL(t testing.TB, path string, episodes []episode.RawEpisode, extra ...string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for i := range episodes {
		if err := enc.Encode(&episodes[i]); err != nil {
			t.Fatalf("encode episode %d: %v", i, err)
		}
	}
	for _, line := range extra {
		if _, err := f.WriteString(line + "\n"); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

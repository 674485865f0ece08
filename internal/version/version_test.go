package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()
	if !strings.HasPrefix(info, "pagetrans "+Version) || !strings.Contains(info, "commit: "+Commit) {
		t.Fatalf("unexpected version info %q", info)
	}
}

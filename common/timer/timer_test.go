package timer

import (
	"strings"
	"testing"
)

func TestXTimer(t *testing.T) {
	tm := NewXTimer()
	tm.Mark("load")
	tm.Mark("exec")

	out := tm.Print()
	if !strings.HasPrefix(out, "load:") || !strings.Contains(out, "exec:") || !strings.Contains(out, "total:") {
		t.Fatalf("unexpected timer output: %s", out)
	}
}

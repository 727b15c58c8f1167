package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSyncLoggerDryRunPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true, false, false)

	l.Remove("/slave/a.txt")
	l.Copy("/master/b.txt", "/slave/b.txt")

	out := buf.String()
	if !strings.Contains(out, `msg="(dryrun) remove"`) {
		t.Errorf("missing dryrun remove record: %s", out)
	}
	if !strings.Contains(out, "path=/slave/a.txt") {
		t.Errorf("missing path attribute: %s", out)
	}
	if !strings.Contains(out, `msg="(dryrun) copy"`) || !strings.Contains(out, "dst=/slave/b.txt") {
		t.Errorf("missing dryrun copy record: %s", out)
	}
}

func TestSyncLoggerLevels(t *testing.T) {
	tests := []struct {
		name      string
		quiet     bool
		verbose   bool
		wantInfo  bool
		wantDebug bool
	}{
		{name: "default", wantInfo: true},
		{name: "quiet", quiet: true},
		{name: "verbose", verbose: true, wantInfo: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(&buf, false, tt.quiet, tt.verbose)

			l.Move("/a", "/b")
			l.Debug("scanning", "dir", "/a")
			l.Error("remove", "/c", errors.New("permission denied"))

			out := buf.String()
			if got := strings.Contains(out, "msg=move"); got != tt.wantInfo {
				t.Errorf("info record present = %v, want %v", got, tt.wantInfo)
			}
			if got := strings.Contains(out, "msg=scanning"); got != tt.wantDebug {
				t.Errorf("debug record present = %v, want %v", got, tt.wantDebug)
			}
			if !strings.Contains(out, `error="permission denied"`) {
				t.Errorf("error record must always be written: %s", out)
			}
		})
	}
}

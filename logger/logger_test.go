package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenMLog(t *testing.T) {
	tmpdir := t.TempDir()

	conf := GetDefLogConf()
	conf.Filename = "unit"
	conf.Level = "info"
	drv, err := OpenMLog(conf, tmpdir)
	if err != nil {
		t.Fatal(err)
	}
	drv.Debug("dropped below level", "k", "v")
	drv.Info("kept in normal log", "k", "v")
	drv.Warn("kept in both logs", "k", "v")
	drv.(*zapDriver).Sync()

	nm, err := os.ReadFile(filepath.Join(tmpdir, "unit.log"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(nm), "dropped below level") {
		t.Fatal("debug record should be filtered")
	}
	if !strings.Contains(string(nm), "kept in normal log") {
		t.Fatal("info record missing")
	}
	wf, err := os.ReadFile(filepath.Join(tmpdir, "unit.log.wf"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(wf), "kept in normal log") || !strings.Contains(string(wf), "kept in both logs") {
		t.Fatalf("unexpected wf content: %s", wf)
	}
}

func TestOpenMLogBadLevel(t *testing.T) {
	conf := GetDefLogConf()
	conf.Level = "verbose"
	if _, err := OpenMLog(conf, t.TempDir()); err == nil {
		t.Fatal("expect level error")
	}
}

func TestLvlFromString(t *testing.T) {
	if LvlFromString("warn") != LvlWarn || LvlFromString("nope") != LvlDebug {
		t.Fatal("level parse mismatch")
	}
}

func BenchmarkMLogging(b *testing.B) {
	tmpdir := b.TempDir()

	conf := GetDefLogConf()
	conf.Console = false
	log, err := OpenMLog(conf, tmpdir)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	logHandle = log
	logConf = conf

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			l, _ := NewLogger("", "test")
			l.Info("test logging benchmark", "key1", "k1", "key2", "k2")
		}
	})
}

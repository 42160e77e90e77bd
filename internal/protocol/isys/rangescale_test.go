package isys

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRangeScaleTable(t *testing.T) {
	tbl := DefaultRangeScaleTable()
	if s, ok := tbl.Scale(4001); !ok || s != 0.01 {
		t.Fatalf("4001: got %v ok=%v", s, ok)
	}
	if s, ok := tbl.Scale(6003); !ok || s != 0.001 {
		t.Fatalf("6003: got %v ok=%v", s, ok)
	}
	if _, ok := tbl.Scale(9999); ok {
		t.Fatalf("unknown product code must not resolve")
	}
}

func TestLoadRangeScaleTable_MergesOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scales.yaml")
	content := "scales:\n  4001: 0.001\n  7001: 0.01\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tbl, err := LoadRangeScaleTable(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	// 文件覆盖内置值
	if s, _ := tbl.Scale(4001); s != 0.001 {
		t.Fatalf("override: got %v want 0.001", s)
	}
	// 文件新增型号
	if s, ok := tbl.Scale(7001); !ok || s != 0.01 {
		t.Fatalf("new code: got %v ok=%v", s, ok)
	}
	// 内置值保留
	if s, ok := tbl.Scale(6003); !ok || s != 0.001 {
		t.Fatalf("builtin kept: got %v ok=%v", s, ok)
	}
}

func TestLoadRangeScaleTable_MissingFile(t *testing.T) {
	if _, err := LoadRangeScaleTable("/nonexistent/scales.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

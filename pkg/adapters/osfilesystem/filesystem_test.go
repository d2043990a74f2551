package osfilesystem

import (
	"path/filepath"
	"testing"
)

func TestFileSystem_WriteCreatesParentDirs(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "out", "nested", "video.mp4")

	if err := fs.WriteFile(path, []byte("ftyp")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "ftyp" {
		t.Errorf("expected %q, got %q", "ftyp", data)
	}
}

func TestFileSystem_AppendFile(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "debug", "stream.h264")

	chunks := [][]byte{{0, 0, 0, 1, 0x67}, {0, 0, 0, 1, 0x65}}
	for _, c := range chunks {
		if err := fs.AppendFile(path, c); err != nil {
			t.Fatalf("AppendFile failed: %v", err)
		}
	}

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(data) != 10 {
		t.Fatalf("expected 10 bytes, got %d", len(data))
	}
	if data[4] != 0x67 || data[9] != 0x65 {
		t.Errorf("chunks not appended in order: %x", data)
	}
}

func TestFileSystem_ExistsAndRemove(t *testing.T) {
	fs := New()
	path := filepath.Join(t.TempDir(), "report.json")

	exists, err := fs.Exists(path)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Fatal("expected file to not exist")
	}

	if err := fs.WriteFile(path, []byte("{}")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if exists, _ := fs.Exists(path); !exists {
		t.Fatal("expected file to exist after write")
	}

	if err := fs.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if exists, _ := fs.Exists(path); exists {
		t.Error("expected file to be removed")
	}
}

func TestFileSystem_ReadMissingFile(t *testing.T) {
	fs := New()
	if _, err := fs.ReadFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error reading missing file")
	}
}

package fileutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestStreamVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.dm4")

	content := []byte("verified stream content")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	res, err := StreamVerified(&buf, src)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), content) {
		t.Fatalf("content mismatch: got %q, want %q", buf.Bytes(), content)
	}
	if res.Bytes != int64(len(content)) {
		t.Fatalf("expected %d bytes, got %d", len(content), res.Bytes)
	}
	sum := sha256.Sum256(content)
	if res.SHA256 != hex.EncodeToString(sum[:]) {
		t.Fatalf("unexpected digest %s", res.SHA256)
	}
}

func TestStreamVerified_MissingSource(t *testing.T) {
	var buf bytes.Buffer
	if _, err := StreamVerified(&buf, filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestStreamVerified_Directory(t *testing.T) {
	var buf bytes.Buffer
	if _, err := StreamVerified(&buf, t.TempDir()); err == nil {
		t.Fatal("expected error for directory source")
	}
}

func TestSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, []byte("12345"), 0o644); err != nil {
		t.Fatal(err)
	}
	size, err := Size(path)
	if err != nil || size != 5 {
		t.Fatalf("Size = %d, %v", size, err)
	}
}

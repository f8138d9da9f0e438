package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFile_SameBytesSameIdentity(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	a := filepath.Join(tmp, "a.bin")
	b := filepath.Join(tmp, "b.bin")
	if err := os.WriteFile(a, []byte("same content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte("same content"), 0o644); err != nil {
		t.Fatal(err)
	}

	ida, err := File(a)
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	idb, err := File(b)
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if ida != idb {
		t.Fatalf("identical bytes produced different identities: %s vs %s", ida, idb)
	}
	if len(ida) != digestLen {
		t.Fatalf("unexpected identity length %d", len(ida))
	}
}

func TestFile_DifferentBytesDifferentIdentity(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	a := filepath.Join(tmp, "a.bin")
	b := filepath.Join(tmp, "b.bin")
	os.WriteFile(a, []byte("one"), 0o644)
	os.WriteFile(b, []byte("two"), 0o644)

	ida, _ := File(a)
	idb, _ := File(b)
	if ida == idb {
		t.Fatalf("different bytes produced the same identity: %s", ida)
	}
}

func TestFile_Missing(t *testing.T) {
	t.Parallel()

	if _, err := File(filepath.Join(t.TempDir(), "nope.bin")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

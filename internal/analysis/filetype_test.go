package analysis

import (
	"os"
	"path/filepath"
	"testing"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestInspectHonestFile(t *testing.T) {
	inspector := NewTypeInspector()
	path := writeFile(t, "image.png", pngHeader)

	result, err := inspector.Inspect(path)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsMasquerade {
		t.Fatalf("honest png flagged: %+v", result)
	}
}

func TestInspectMasquerade(t *testing.T) {
	inspector := NewTypeInspector()
	path := writeFile(t, "report.txt", pngHeader)

	result, err := inspector.Inspect(path)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsMasquerade {
		t.Fatal("png posing as txt was not flagged")
	}
	if result.RealExt != "png" || result.DeclaredExt != "txt" {
		t.Fatalf("got %q vs %q", result.RealExt, result.DeclaredExt)
	}
}

func TestInspectAllowedAlias(t *testing.T) {
	inspector := NewTypeInspector()
	// docx is a zip container; the alias map must let it through
	zipHeader := []byte{'P', 'K', 0x03, 0x04, 0, 0, 0, 0, 0, 0}
	path := writeFile(t, "paper.docx", zipHeader)

	result, err := inspector.Inspect(path)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsMasquerade {
		t.Fatalf("docx flagged as masquerade: %+v", result)
	}
}

func TestInspectPlainText(t *testing.T) {
	inspector := NewTypeInspector()
	path := writeFile(t, "notes.md", []byte("just some text\n"))

	result, err := inspector.Inspect(path)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsMasquerade {
		t.Fatalf("plain text flagged: %+v", result)
	}
}

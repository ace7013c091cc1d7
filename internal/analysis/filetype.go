package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/h2non/filetype"
)

// Result of inspecting one file.
type Result struct {
	IsMasquerade bool   // extension does not match the magic bytes
	RealExt      string // type according to the file header
	DeclaredExt  string // type according to the file name
	RiskLevel    string // HIGH, MEDIUM, SAFE
	Message      string
}

// TypeInspector compares a file's declared extension against its magic
// bytes. The alias map whitelists the "lying but legitimate" cases
// (docx is a zip, svg is xml, and so on).
type TypeInspector struct {
	aliasMap map[string]map[string]bool
	mu       sync.RWMutex
}

func NewTypeInspector() *TypeInspector {
	inspector := &TypeInspector{
		aliasMap: make(map[string]map[string]bool),
	}
	inspector.initRules()
	return inspector
}

func (t *TypeInspector) initRules() {
	allow := func(realType string, allowedExts ...string) {
		if _, ok := t.aliasMap[realType]; !ok {
			t.aliasMap[realType] = make(map[string]bool)
		}
		t.aliasMap[realType][realType] = true
		for _, ext := range allowedExts {
			t.aliasMap[realType][ext] = true
		}
	}

	// ZIP containers are the biggest source of false positives.
	allow("zip",
		"docx", "docm", "dotx", "dotm",
		"xlsx", "xlsm", "xltx", "xltm",
		"pptx", "pptm", "potx", "potm",
		"jar", "war", "ear",
		"apk",
		"odt", "ods", "odp",
		"crx",
		"whl",
		"nupkg",
	)
	allow("xml", "svg", "html", "htm", "kml", "dae", "plist", "config")
	allow("mp4", "m4v", "mov", "qt")
	allow("ogg", "ogv", "oga", "spx")
	allow("mov", "qt", "mp4")
	// PE comes in many legitimate suffixes.
	allow("exe", "dll", "sys", "scr", "cpl", "ocx")
	allow("gz", "gzip", "tgz")
	allow("tar")
	allow("rar")
	allow("7z")
}

// Inspect reads the file header and classifies the mismatch, if any.
func (t *TypeInspector) Inspect(filePath string) (*Result, error) {
	rawExt := filepath.Ext(filePath)
	if rawExt == "" {
		return &Result{RiskLevel: "SAFE", Message: "No extension"}, nil
	}
	declaredExt := strings.ToLower(strings.TrimPrefix(rawExt, "."))

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file failed: %w", err)
	}
	defer file.Close()

	// 262 bytes is the header length the filetype library recommends.
	head := make([]byte, 262)
	n, err := file.Read(head)
	if err != nil && n == 0 {
		return &Result{RiskLevel: "SAFE", Message: "Empty file"}, nil
	}

	kind, _ := filetype.Match(head)
	if kind == filetype.Unknown {
		// Plain text (source, json, markdown...) has no signature;
		// trust it.
		return &Result{
			RealExt:     "unknown",
			DeclaredExt: declaredExt,
			RiskLevel:   "SAFE",
			Message:     "Unknown binary signature (likely text)",
		}, nil
	}

	realExt := kind.Extension
	if realExt == declaredExt {
		return &Result{RealExt: realExt, DeclaredExt: declaredExt, RiskLevel: "SAFE"}, nil
	}

	t.mu.RLock()
	allowedMap, exists := t.aliasMap[realExt]
	t.mu.RUnlock()
	if exists && allowedMap[declaredExt] {
		return &Result{
			RealExt:     realExt,
			DeclaredExt: declaredExt,
			RiskLevel:   "SAFE",
			Message:     fmt.Sprintf("Allowed alias: %s is compatible with %s", declaredExt, realExt),
		}, nil
	}

	risk := "MEDIUM"
	if realExt == "exe" || realExt == "elf" || realExt == "dll" {
		risk = "HIGH"
	}
	return &Result{
		IsMasquerade: true,
		RealExt:      realExt,
		DeclaredExt:  declaredExt,
		RiskLevel:    risk,
		Message:      fmt.Sprintf("Type mismatch: header is '%s' but file is '%s'", realExt, declaredExt),
	}, nil
}

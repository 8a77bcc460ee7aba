package companion

import (
	"os"
	"path/filepath"
	"strings"
)

// Editor supplies the code the user is working on.
type Editor interface {
	Code() string
	Language() string
}

// StaticEditor is an Editor over fixed contents.
type StaticEditor struct {
	Source string
	Lang   string
}

func (e StaticEditor) Code() string     { return e.Source }
func (e StaticEditor) Language() string { return e.Lang }

// FileEditor re-reads a file on every call so requests carry the latest saved code.
type FileEditor struct {
	Path string
	Lang string
}

func (e FileEditor) Code() string {
	if e.Path == "" {
		return ""
	}
	b, err := os.ReadFile(e.Path)
	if err != nil {
		return ""
	}
	return string(b)
}

// Language returns Lang, or a name derived from the file extension.
func (e FileEditor) Language() string {
	if e.Lang != "" {
		return e.Lang
	}
	return languageForExt(strings.ToLower(filepath.Ext(e.Path)))
}

var extLanguages = map[string]string{
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".cs":    "csharp",
	".go":    "go",
	".java":  "java",
	".js":    "javascript",
	".kt":    "kotlin",
	".py":    "python",
	".rb":    "ruby",
	".rs":    "rust",
	".sh":    "bash",
	".sql":   "sql",
	".swift": "swift",
	".ts":    "typescript",
}

func languageForExt(ext string) string {
	return extLanguages[ext]
}

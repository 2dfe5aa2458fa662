package ingest

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// langTable maps extensions to display languages in priority order. The
// walk is lexical, so detection is deterministic: the first file whose
// extension appears in the table decides, checked top to bottom.
var langTable = []struct {
	exts []string
	name string
}{
	{[]string{".py"}, "Python"},
	{[]string{".js", ".jsx"}, "JavaScript"},
	{[]string{".ts", ".tsx"}, "TypeScript"},
	{[]string{".go"}, "Go"},
	{[]string{".rs"}, "Rust"},
	{[]string{".java"}, "Java"},
	{[]string{".php"}, "PHP"},
	{[]string{".rb"}, "Ruby"},
	{[]string{".html"}, "HTML"},
	{[]string{".css"}, "CSS"},
}

// langColors maps detected languages to their GitHub display colors.
var langColors = map[string]string{
	"Python":     "#3572A5",
	"Rust":       "#dea584",
	"Go":         "#00ADD8",
	"Java":       "#b07219",
	"PHP":        "#4F5D95",
	"Ruby":       "#701516",
	"JavaScript": "#f1e05a",
	"TypeScript": "#2b7489",
	"HTML":       "#e34c26",
	"CSS":        "#563d7c",
}

// fallbackColor is used for unrecognized languages.
const fallbackColor = "#8b949e"

// DetectLanguage walks the extracted tree and returns the dominant source
// language, or "Other" when no extension matches.
func DetectLanguage(root string) (string, error) {
	detected := "Other"
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		for _, row := range langTable {
			for _, e := range row.exts {
				if ext == e {
					detected = row.name
					return fs.SkipAll
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return detected, nil
}

// LanguageColor returns the display color for a language label.
func LanguageColor(lang string) string {
	if c, ok := langColors[lang]; ok {
		return c
	}
	return fallbackColor
}

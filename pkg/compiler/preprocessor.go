package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Preprocess replaces every line of the form `import "file"` with the
// contents of that file, recursively. Paths are tried relative to the
// importing file first, then to the working directory. A file imported a
// second time is skipped; an import cycle is an error.
func Preprocess(src string, baseDir string) (string, error) {
	return preprocessRecursive(src, baseDir, make(map[string]bool), make(map[string]bool))
}

func preprocessRecursive(src string, baseDir string, visitedStack map[string]bool, alreadyProcessed map[string]bool) (string, error) {
	lines := strings.Split(src, "\n")
	var result strings.Builder

	for i, line := range lines {
		filename, ok, err := parseImport(line)
		if err != nil {
			return "", fmt.Errorf("line %d: %w", i+1, err)
		}
		if !ok {
			result.WriteString(line)
			if i < len(lines)-1 {
				result.WriteString("\n")
			}
			continue
		}

		fullPath := filepath.Join(baseDir, filename)
		if _, err := os.Stat(fullPath); os.IsNotExist(err) {
			if cwdPath, absErr := filepath.Abs(filename); absErr == nil {
				if _, err := os.Stat(cwdPath); err == nil {
					fullPath = cwdPath
				}
			}
		}

		absPath, err := filepath.Abs(fullPath)
		if err != nil {
			return "", err
		}
		if visitedStack[absPath] {
			return "", fmt.Errorf("circular import detected: %s", filename)
		}
		if alreadyProcessed[absPath] {
			result.WriteString("\n")
			continue
		}
		alreadyProcessed[absPath] = true

		content, err := os.ReadFile(fullPath)
		if err != nil {
			return "", fmt.Errorf("failed to read imported file %s (path: %s): %w", filename, fullPath, err)
		}

		// copy so that diamond imports are not mistaken for cycles
		newStack := make(map[string]bool, len(visitedStack)+1)
		for k, v := range visitedStack {
			newStack[k] = v
		}
		newStack[absPath] = true

		processed, err := preprocessRecursive(string(content), filepath.Dir(fullPath), newStack, alreadyProcessed)
		if err != nil {
			return "", err
		}
		result.WriteString(processed)
		result.WriteString("\n")
	}
	return result.String(), nil
}

// parseImport recognises `import "file"`. ok is false for any other line.
func parseImport(line string) (filename string, ok bool, err error) {
	trimmed := strings.TrimSpace(line)
	rest, found := strings.CutPrefix(trimmed, "import")
	if !found {
		return "", false, nil
	}
	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "\"") {
		return "", false, nil
	}
	parts := strings.SplitN(rest, "\"", 3)
	if len(parts) < 3 || parts[1] == "" {
		return "", false, fmt.Errorf("invalid import directive: %s", trimmed)
	}
	if tail := strings.TrimSpace(parts[2]); tail != "" && !strings.HasPrefix(tail, "#") {
		return "", false, fmt.Errorf("invalid import directive: %s", trimmed)
	}
	return parts[1], true, nil
}

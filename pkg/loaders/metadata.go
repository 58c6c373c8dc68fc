package loaders

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadMetadata returns "Key: value" pairs from a mesh file's leading comments.
// OBJ files use "# Key: value" lines before the first statement; PLY files use
// "comment Key: value" lines in the header.
func ReadMetadata(filename string) (map[string]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open mesh file: %w", err)
	}
	defer file.Close()

	metadata := make(map[string]string)
	scanner := bufio.NewScanner(file)
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		var content string
		switch {
		case first && line == "ply":
			first = false
			continue
		case strings.HasPrefix(line, "#"):
			content = strings.TrimSpace(strings.TrimPrefix(line, "#"))
		case strings.HasPrefix(line, "comment "):
			content = strings.TrimSpace(strings.TrimPrefix(line, "comment "))
		case strings.HasPrefix(line, "format ") || line == "":
			first = false
			continue
		default:
			// Metadata ends at the first statement that is not a comment
			return metadata, nil
		}
		first = false

		key, value, found := strings.Cut(content, ":")
		if found && key != "" && !strings.ContainsAny(key, " \t") {
			metadata[key] = strings.TrimSpace(value)
		}
	}
	return metadata, scanner.Err()
}

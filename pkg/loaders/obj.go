package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
)

// LoadOBJ loads a Wavefront OBJ file
func LoadOBJ(filename string) (geometry.MeshData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return geometry.MeshData{}, fmt.Errorf("failed to open OBJ file: %w", err)
	}
	defer file.Close()

	data, err := ParseOBJ(file)
	if err != nil {
		return geometry.MeshData{}, fmt.Errorf("%s: %w", filename, err)
	}
	if data.Name == "" {
		data.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return data, nil
}

// ParseOBJ reads vertex positions (v), vertex normals (vn) and faces (f).
// Face corners may be v, v/vt, v//vn or v/vt/vn, with 1-based or negative
// (relative) indices. Polygons are fan triangulated. Other statements are ignored.
func ParseOBJ(r io.Reader) (geometry.MeshData, error) {
	var data geometry.MeshData

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			v, err := parseVec3(fields[1:])
			if err != nil {
				return data, fmt.Errorf("line %d: vertex: %w", lineNumber, err)
			}
			data.Vertices = append(data.Vertices, v)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return data, fmt.Errorf("line %d: normal: %w", lineNumber, err)
			}
			data.Normals = append(data.Normals, n.Normalize())
		case "f":
			if err := parseFace(&data, fields[1:]); err != nil {
				return data, fmt.Errorf("line %d: face: %w", lineNumber, err)
			}
		case "o", "g":
			if data.Name == "" && len(fields) > 1 {
				data.Name = strings.Join(fields[1:], " ")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return data, fmt.Errorf("failed to read OBJ data: %w", err)
	}

	if err := finish(&data); err != nil {
		return data, err
	}
	return data, nil
}

// parseVec3 parses the first three fields as floats; extra fields (such as w) are ignored
func parseVec3(fields []string) (core.Vec3, error) {
	if len(fields) < 3 {
		return core.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	var c [3]float64
	for i := 0; i < 3; i++ {
		value, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return core.Vec3{}, fmt.Errorf("invalid number %q", fields[i])
		}
		c[i] = value
	}
	return core.NewVec3(c[0], c[1], c[2]), nil
}

// parseFace resolves the corners of a polygon and appends its fan triangulation
func parseFace(data *geometry.MeshData, corners []string) error {
	if len(corners) < 3 {
		return fmt.Errorf("expected at least 3 vertices, got %d", len(corners))
	}

	vertices := make([]int, len(corners))
	normals := make([]int, len(corners))
	for i, corner := range corners {
		parts := strings.Split(corner, "/")

		vi, err := resolveIndex(parts[0], len(data.Vertices))
		if err != nil {
			return fmt.Errorf("vertex index: %w", err)
		}
		vertices[i] = vi

		normals[i] = geometry.NoNormal
		if len(parts) == 3 && parts[2] != "" {
			ni, err := resolveIndex(parts[2], len(data.Normals))
			if err != nil {
				return fmt.Errorf("normal index: %w", err)
			}
			normals[i] = ni
		}
	}

	for i := 1; i+1 < len(corners); i++ {
		data.Faces = append(data.Faces, geometry.Face{
			Vertices: [3]int{vertices[0], vertices[i], vertices[i+1]},
			Normals:  [3]int{normals[0], normals[i], normals[i+1]},
		})
	}
	return nil
}

// resolveIndex converts a 1-based or negative OBJ index into a 0-based index
// into a list currently holding count elements
func resolveIndex(field string, count int) (int, error) {
	index, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", field)
	}

	switch {
	case index > 0 && index <= count:
		return index - 1, nil
	case index < 0 && -index <= count:
		return count + index, nil
	default:
		return 0, fmt.Errorf("index %d out of range (%d defined)", index, count)
	}
}

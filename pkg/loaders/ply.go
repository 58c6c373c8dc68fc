package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
)

const (
	// maxPLYElementCount bounds the count an element line may declare
	maxPLYElementCount = 1 << 28
	// maxPLYPrealloc bounds how many vertices are allocated before any are read
	maxPLYPrealloc = 1 << 20
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format   string // "binary_little_endian" or "ascii"
	Version  string // Usually "1.0"
	Elements []PLYElement
	Comments []string
}

// PLYElement is an element declaration with its properties, in file order
type PLYElement struct {
	Name       string
	Count      int
	Properties []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// index returns the position of the named property, or -1
func (e PLYElement) index(name string) int {
	for i, prop := range e.Properties {
		if prop.Name == name {
			return i
		}
	}
	return -1
}

// LoadPLY loads a PLY file
func LoadPLY(filename string) (geometry.MeshData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return geometry.MeshData{}, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	data, err := ParsePLY(file)
	if err != nil {
		return geometry.MeshData{}, fmt.Errorf("%s: %w", filename, err)
	}
	data.Name = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return data, nil
}

// ParsePLY reads an ascii or binary little-endian PLY stream.
// Vertex x/y/z and optional nx/ny/nz are read; faces come from the
// vertex_indices (or vertex_index) list and are fan triangulated.
// Other elements and properties are skipped.
func ParsePLY(r io.Reader) (geometry.MeshData, error) {
	var data geometry.MeshData

	br := bufio.NewReaderSize(r, 1024*1024)
	header, err := parsePLYHeader(br)
	if err != nil {
		return data, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values plyValueReader
	switch header.Format {
	case "ascii":
		scanner := bufio.NewScanner(br)
		scanner.Split(bufio.ScanWords)
		values = &asciiValueReader{scanner: scanner}
	case "binary_little_endian":
		values = &binaryValueReader{r: br, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryValueReader{r: br, order: binary.BigEndian}
	default:
		return data, fmt.Errorf("unsupported PLY format: %s", header.Format)
	}

	for _, element := range header.Elements {
		switch element.Name {
		case "vertex":
			err = readPLYVertices(values, element, &data)
		case "face":
			err = readPLYFaces(values, element, &data)
		default:
			err = skipPLYElement(values, element)
		}
		if err != nil {
			return data, fmt.Errorf("failed to read %s data: %w", element.Name, err)
		}
	}

	if err := finish(&data); err != nil {
		return data, err
	}
	return data, nil
}

// parsePLYHeader parses the header up to and including end_header
func parsePLYHeader(br *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}

	magic, err := br.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, fmt.Errorf("missing ply magic number")
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("unterminated header: %w", err)
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			return header, nil
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid format line: %q", strings.TrimSpace(line))
			}
			header.Format = parts[1]
			header.Version = parts[2]
		case "comment", "obj_info":
			header.Comments = append(header.Comments, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), parts[0])))
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line: %q", strings.TrimSpace(line))
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			if count > maxPLYElementCount {
				return nil, fmt.Errorf("element %s count %d exceeds limit %d", parts[1], count, maxPLYElementCount)
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
		case "property":
			if len(header.Elements) == 0 {
				return nil, fmt.Errorf("property before any element")
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			current := &header.Elements[len(header.Elements)-1]
			current.Properties = append(current.Properties, prop)
		}
	}
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		return PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}, nil
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

func readPLYVertices(values plyValueReader, element PLYElement, data *geometry.MeshData) error {
	position := [3]int{element.index("x"), element.index("y"), element.index("z")}
	if position[0] < 0 || position[1] < 0 || position[2] < 0 {
		return fmt.Errorf("vertex element lacks x, y or z")
	}
	normal := [3]int{element.index("nx"), element.index("ny"), element.index("nz")}
	hasNormals := normal[0] >= 0 && normal[1] >= 0 && normal[2] >= 0

	capacity := min(element.Count, maxPLYPrealloc)
	data.Vertices = make([]core.Vec3, 0, capacity)
	if hasNormals {
		data.Normals = make([]core.Vec3, 0, capacity)
	}

	row := make([]float64, len(element.Properties))
	for i := 0; i < element.Count; i++ {
		for j, prop := range element.Properties {
			if prop.IsList {
				if err := skipPLYList(values, prop); err != nil {
					return fmt.Errorf("vertex %d: %w", i, err)
				}
				continue
			}
			value, err := values.scalar(prop.Type)
			if err != nil {
				return fmt.Errorf("vertex %d: %w", i, err)
			}
			row[j] = value
		}

		data.Vertices = append(data.Vertices, core.NewVec3(row[position[0]], row[position[1]], row[position[2]]))
		if hasNormals {
			n := core.NewVec3(row[normal[0]], row[normal[1]], row[normal[2]])
			data.Normals = append(data.Normals, n.Normalize())
		}
	}
	return nil
}

func readPLYFaces(values plyValueReader, element PLYElement, data *geometry.MeshData) error {
	indexProp := element.index("vertex_indices")
	if indexProp < 0 {
		indexProp = element.index("vertex_index")
	}
	if indexProp < 0 || !element.Properties[indexProp].IsList {
		return fmt.Errorf("face element lacks a vertex_indices list")
	}

	hasNormals := len(data.Normals) > 0
	var indices []int
	for i := 0; i < element.Count; i++ {
		for j, prop := range element.Properties {
			if j != indexProp {
				if err := skipPLYProperty(values, prop); err != nil {
					return fmt.Errorf("face %d: %w", i, err)
				}
				continue
			}

			count, err := values.scalar(prop.ListType)
			if err != nil {
				return fmt.Errorf("face %d: %w", i, err)
			}
			if count < 3 {
				return fmt.Errorf("face %d: expected at least 3 vertices, got %d", i, int(count))
			}

			indices = indices[:0]
			for k := 0; k < int(count); k++ {
				index, err := values.scalar(prop.DataType)
				if err != nil {
					return fmt.Errorf("face %d: %w", i, err)
				}
				indices = append(indices, int(index))
			}

			for k := 1; k+1 < len(indices); k++ {
				face := geometry.Face{
					Vertices: [3]int{indices[0], indices[k], indices[k+1]},
					Normals:  [3]int{geometry.NoNormal, geometry.NoNormal, geometry.NoNormal},
				}
				if hasNormals {
					face.Normals = face.Vertices
				}
				data.Faces = append(data.Faces, face)
			}
		}
	}
	return nil
}

func skipPLYElement(values plyValueReader, element PLYElement) error {
	for i := 0; i < element.Count; i++ {
		for _, prop := range element.Properties {
			if err := skipPLYProperty(values, prop); err != nil {
				return err
			}
		}
	}
	return nil
}

func skipPLYProperty(values plyValueReader, prop PLYProperty) error {
	if prop.IsList {
		return skipPLYList(values, prop)
	}
	_, err := values.scalar(prop.Type)
	return err
}

func skipPLYList(values plyValueReader, prop PLYProperty) error {
	count, err := values.scalar(prop.ListType)
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, err := values.scalar(prop.DataType); err != nil {
			return err
		}
	}
	return nil
}

// plyValueReader reads successive scalar values of a PLY body
type plyValueReader interface {
	scalar(dataType string) (float64, error)
}

type asciiValueReader struct {
	scanner *bufio.Scanner
}

func (a *asciiValueReader) scalar(dataType string) (float64, error) {
	if !a.scanner.Scan() {
		if err := a.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	value, err := strconv.ParseFloat(a.scanner.Text(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", dataType, a.scanner.Text())
	}
	return value, nil
}

type binaryValueReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryValueReader) scalar(dataType string) (float64, error) {
	size, err := plyScalarSize(dataType)
	if err != nil {
		return 0, err
	}
	buf := b.buf[:size]
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return 0, err
	}

	switch dataType {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(buf))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(buf)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(buf))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(buf)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(buf))), nil
	default: // "double", "float64"
		return math.Float64frombits(b.order.Uint64(buf)), nil
	}
}

// plyScalarSize returns the size in bytes of a PLY scalar type
func plyScalarSize(dataType string) (int, error) {
	switch dataType {
	case "char", "int8", "uchar", "uint8":
		return 1, nil
	case "short", "int16", "ushort", "uint16":
		return 2, nil
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4, nil
	case "double", "float64":
		return 8, nil
	default:
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
}

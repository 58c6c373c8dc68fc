package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-progressive-pathtracer/pkg/loaders"
)

// Scene groups reported by ListAllScenes
const (
	BuiltinGroup = "Built-in Scenes"
	MeshGroup    = "Mesh Files"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`                 // Name accepted by Create
	Name        string `json:"name"`               // Scene name
	DisplayName string `json:"displayName"`        // UI display name
	Description string `json:"description"`        // Optional description
	Group       string `json:"group"`              // Grouping category
	Type        string `json:"type"`               // "builtin" or "mesh"
	FilePath    string `json:"filePath,omitempty"` // Path to the mesh file (mesh type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

var builtinInfo = []SceneInfo{
	{ID: "spheres", Name: "Spheres", Description: "Glossy, metal and emissive spheres on a giant ground sphere"},
	{ID: "cornell", Name: "Cornell Box", Description: "Cornell box lit by a ceiling panel"},
	{ID: "meshes", Name: "Mesh Landscape", Description: "Landscape built from triangle meshes"},
	{ID: "grid", Name: "Material Grid", Description: "Spheres sweeping specular probability and smoothness"},
	{ID: "empty", Name: "Empty", Description: "Sky and sun only"},
}

// BuiltinScenes returns metadata for every built-in scene
func BuiltinScenes() []SceneInfo {
	scenes := make([]SceneInfo, len(builtinInfo))
	for i, info := range builtinInfo {
		info.DisplayName = info.Name
		info.Group = BuiltinGroup
		info.Type = "builtin"
		scenes[i] = info
	}
	return scenes
}

// ListMeshScenes scans dir for mesh files and returns a scene entry for each.
// A missing directory yields an empty list.
func ListMeshScenes(dir string) ([]SceneInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SceneInfo{}, nil
		}
		return nil, fmt.Errorf("failed to scan models directory: %w", err)
	}

	scenes := []SceneInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !loaders.IsMeshFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		scenes = append(scenes, meshSceneInfo(path))
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes, nil
}

// meshSceneInfo builds scene metadata from a mesh file's header comments,
// falling back to values derived from the file name
func meshSceneInfo(path string) SceneInfo {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	info := SceneInfo{
		ID:       MeshScenePrefix + path,
		Name:     titleCase(base),
		Group:    MeshGroup,
		Type:     "mesh",
		FilePath: path,
	}

	// Unreadable metadata is not fatal; the loader reports real problems
	if metadata, err := loaders.ReadMetadata(path); err == nil {
		if name := metadata["Scene"]; name != "" {
			info.Name = name
		}
		if group := metadata["Group"]; group != "" {
			info.Group = group
		}
		info.Description = metadata["Description"]
	}
	info.DisplayName = info.Name
	return info
}

// ListAllScenes returns built-in scenes and mesh scenes from modelsDir, grouped
// by category with the built-in group first and the rest alphabetical
func ListAllScenes(modelsDir string) (ScenesResponse, error) {
	var response ScenesResponse

	meshScenes, err := ListMeshScenes(modelsDir)
	if err != nil {
		return response, fmt.Errorf("failed to list mesh scenes: %w", err)
	}

	groupMap := make(map[string][]SceneInfo)
	for _, info := range append(BuiltinScenes(), meshScenes...) {
		groupMap[info.Group] = append(groupMap[info.Group], info)
	}

	var groupNames []string
	for name := range groupMap {
		if name != BuiltinGroup {
			groupNames = append(groupNames, name)
		}
	}
	sort.Strings(groupNames)

	response.Groups = append(response.Groups, SceneGroup{Name: BuiltinGroup, Scenes: groupMap[BuiltinGroup]})
	for _, name := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{Name: name, Scenes: groupMap[name]})
	}
	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "stanford-bunny" -> "Stanford Bunny"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}
	return strings.Join(words, " ")
}

package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

// InspectResponse represents the JSON response for object inspection
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	GeometryType string                 `json:"geometryType,omitempty"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// inspectPixel casts an unjittered ray through the centre of pixel (x, y)
func inspectPixel(sceneObj *scene.Scene, x, y int) (core.Ray, geometry.HitRecord) {
	sampling := sceneObj.SamplingConfig
	u, v := renderer.PixelUV(x, y, sampling.Width, sampling.Height)
	origin := sceneObj.CameraConfig.Position
	ray := core.NewRay(origin, sceneObj.Camera.FocusPoint(u, v).Subtract(origin).Normalize())
	return ray, sceneObj.Trace(ray, nil)
}

// extractGeometryInfo finds the primitive responsible for hit
func extractGeometryInfo(sceneObj *scene.Scene, ray core.Ray, hit geometry.HitRecord) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	for _, sphere := range sceneObj.Spheres {
		if sphere.Intersect(ray).T == hit.T {
			properties["center"] = vecJSON(sphere.Center)
			properties["radius"] = sphere.Radius
			return "sphere", properties
		}
	}

	for index, mesh := range sceneObj.Meshes {
		for i := mesh.FirstTriangle; i < mesh.End(); i++ {
			if sceneObj.Triangles[i].Intersect(ray).T == hit.T {
				properties["mesh"] = index
				properties["triangle"] = i - mesh.FirstTriangle
				properties["triangleCount"] = mesh.NumTriangles
				properties["boundingBox"] = map[string]interface{}{
					"min": vecJSON(mesh.Bounds.Min),
					"max": vecJSON(mesh.Bounds.Max),
				}
				return "mesh", properties
			}
		}
	}
	return "unknown", properties
}

// extractMaterialInfo describes a material for the inspector panel
func extractMaterialInfo(mat material.Material) map[string]interface{} {
	properties := map[string]interface{}{
		"color":               colorHex(mat.Color),
		"albedo":              vecJSON(mat.Color),
		"specularColor":       vecJSON(mat.SpecularColor),
		"specularProbability": mat.SpecularProbability,
		"smoothness":          mat.Smoothness,
	}
	if mat.IsEmissive() {
		properties["emission"] = vecJSON(mat.Emitted())
		properties["emissionStrength"] = mat.EmissionStrength
	}
	return properties
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}
	if pixelX < 0 || pixelX >= req.Width || pixelY < 0 || pixelY >= req.Height {
		writeError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	sceneObj, err := s.createScene(req.Scene, req.sampling())
	if err != nil {
		writeSceneError(w, req.Scene, err)
		return
	}

	ray, hit := inspectPixel(sceneObj, pixelX, pixelY)
	if !hit.DidHit() {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false, Distance: -1})
		return
	}

	geometryType, geometryProps := extractGeometryInfo(sceneObj, ray, hit)
	writeJSON(w, http.StatusOK, InspectResponse{
		Hit:          true,
		GeometryType: geometryType,
		Point:        vecJSON(hit.Point),
		Normal:       vecJSON(hit.Normal),
		Distance:     hit.T,
		Properties: map[string]interface{}{
			"material": extractMaterialInfo(sceneObj.Material(hit.Material)),
			"geometry": geometryProps,
		},
	})
}

func vecJSON(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func colorHex(c core.Vec3) string {
	c = c.Clamp(0, 1)
	return fmt.Sprintf("#%02x%02x%02x", int(c.X*255), int(c.Y*255), int(c.Z*255))
}

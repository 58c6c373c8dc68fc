package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

// Limits on client supplied render parameters
const (
	MinImageSize  = 16
	MaxImageSize  = 2000
	MaxSamples    = 256
	MaxBounces    = 32
	MaxFramesRun  = 10000
	DefaultScene  = "spheres"
	DefaultWidth  = 400
	DefaultHeight = 225
)

// Server handles web requests for the progressive path tracer
type Server struct {
	config   Config
	upgrader websocket.Upgrader
}

// NewServer creates a new web server
func NewServer(config Config) *Server {
	return &Server{
		config: config,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene      string `json:"scene"`      // Scene ID (e.g., "cornell" or "mesh:models/bunny.obj")
	Width      int    `json:"width"`      // Image width
	Height     int    `json:"height"`     // Image height
	Samples    int    `json:"samples"`    // Samples per pixel per frame
	MaxBounces int    `json:"maxBounces"` // Bounces after the primary hit
	MaxFrames  int    `json:"maxFrames"`  // Frames per run (0 = until the client leaves)
	Tiles      bool   `json:"tiles"`      // Whether to stream tile updates
}

// sampling returns the scene sampling configuration the request asks for
func (req *RenderRequest) sampling() scene.SamplingConfig {
	return scene.SamplingConfig{
		Width:           req.Width,
		Height:          req.Height,
		SamplesPerPixel: req.Samples,
		MaxBounces:      req.MaxBounces,
	}
}

// Handler returns the HTTP handler serving the API, the WebSocket and static files
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/ws/render", s.handleRenderSocket)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	log.Printf("Starting web server on http://localhost%s", s.config.Addr)
	return http.ListenAndServe(s.config.Addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes and the mesh files in the models directory
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes(s.config.ModelsDir)
	if err != nil {
		log.Printf("Error listing scenes: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list scenes")
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = DefaultScene
	}

	sceneObj, err := s.createScene(sceneName, scene.DefaultSamplingConfig())
	if err != nil {
		writeSceneError(w, sceneName, err)
		return
	}

	config := sceneObj.SamplingConfig
	response := map[string]interface{}{
		"scene": sceneName,
		"defaults": map[string]interface{}{
			"width":           config.Width,
			"height":          config.Height,
			"samplesPerPixel": config.SamplesPerPixel,
			"maxBounces":      config.MaxBounces,
			"maxFrames":       s.config.MaxFrames,
		},
		"primitives": sceneObj.PrimitiveCount(),
		"limits": map[string]interface{}{
			"width":      map[string]int{"min": MinImageSize, "max": MaxImageSize},
			"height":     map[string]int{"min": MinImageSize, "max": MaxImageSize},
			"samples":    map[string]int{"min": 1, "max": MaxSamples},
			"maxBounces": map[string]int{"min": 0, "max": MaxBounces},
			"maxFrames":  map[string]int{"min": 0, "max": MaxFramesRun},
		},
	}
	writeJSON(w, http.StatusOK, response)
}

// createScene builds a scene by ID. Mesh scenes are only served when the file
// is one listed from the models directory.
func (s *Server) createScene(id string, sampling scene.SamplingConfig) (*scene.Scene, error) {
	if !strings.HasPrefix(id, scene.MeshScenePrefix) {
		return scene.CreateBuiltin(id, sampling)
	}

	meshScenes, err := scene.ListMeshScenes(s.config.ModelsDir)
	if err != nil {
		return nil, err
	}
	for _, info := range meshScenes {
		if info.ID == id {
			return scene.FromMeshFile(info.FilePath, sampling)
		}
	}
	return nil, fmt.Errorf("%w: %q", scene.ErrUnknownScene, id)
}

// parseRenderRequest parses and validates the render parameters of a request
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{Scene: query.Get("scene")}
	if req.Scene == "" {
		req.Scene = DefaultScene
	}

	defaults := scene.DefaultSamplingConfig()
	var err error
	if req.Width, err = parseIntParam(query, "width", DefaultWidth, MinImageSize, MaxImageSize); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", DefaultHeight, MinImageSize, MaxImageSize); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(query, "samples", defaults.SamplesPerPixel, 1, MaxSamples); err != nil {
		return nil, err
	}
	if req.MaxBounces, err = parseIntParam(query, "bounces", defaults.MaxBounces, 0, MaxBounces); err != nil {
		return nil, err
	}
	if req.MaxFrames, err = parseIntParam(query, "frames", s.config.MaxFrames, 0, MaxFramesRun); err != nil {
		return nil, err
	}
	if raw := query.Get("tiles"); raw != "" {
		if req.Tiles, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("invalid tiles: %s", raw)
		}
	}

	// Performance warning
	if req.Width*req.Height > 800*600 && req.Samples > 16 {
		log.Printf("Render warning: Large image with high samples may render slowly")
	}
	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeSceneError reports a scene that could not be created
func writeSceneError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, scene.ErrUnknownScene) {
		writeError(w, http.StatusNotFound, "Unknown scene: "+id)
		return
	}
	writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to load scene %s: %v", id, err))
}

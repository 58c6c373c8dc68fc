package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/websocket"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/recorder"
	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

const (
	// DefaultTileSize is the tile edge used for WebSocket sessions
	DefaultTileSize = 32
	writeWait       = 10 * time.Second
	maxControlBytes = 4096
)

// ControlMessage is sent by the viewer to steer a render session
type ControlMessage struct {
	Type  string `json:"type"`            // "switchScene", "reset" or "save"
	Scene string `json:"scene,omitempty"` // Scene ID for switchScene
}

// FrameMessage carries the accumulated image after a frame
type FrameMessage struct {
	Type          string  `json:"type"` // "frame"
	Scene         string  `json:"scene"`
	FrameIndex    int     `json:"frameIndex"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
	ImageData     string  `json:"imageData"` // Base64 encoded PNG
	Samples       int     `json:"samples"`   // Accumulated samples per pixel
	MeanChange    float64 `json:"meanChange"`
	StdDevChange  float64 `json:"stdDevChange"`
	Rays          int64   `json:"rays"`
	TriangleTests int64   `json:"triangleTests"`
	BoxRejectRate float64 `json:"boxRejectRate"`
	FrameMs       int64   `json:"frameMs"`
	ElapsedMs     int64   `json:"elapsedMs"`
	IsLast        bool    `json:"isLast"`
}

// TileMessage carries one freshly rendered tile of the current frame
type TileMessage struct {
	Type       string `json:"type"` // "tile"
	TileX      int    `json:"tileX"`
	TileY      int    `json:"tileY"`
	ImageData  string `json:"imageData"` // Base64 encoded PNG of just this tile
	FrameIndex int    `json:"frameIndex"`
	TileNumber int    `json:"tileNumber"`
	TotalTiles int    `json:"totalTiles"`
}

// SavedMessage answers a save request
type SavedMessage struct {
	Type       string `json:"type"` // "saved"
	Scene      string `json:"scene"`
	FrameIndex int    `json:"frameIndex"`
	ImageData  string `json:"imageData"`
	Checkpoint string `json:"checkpoint,omitempty"` // Checkpoint path when recording is enabled
}

// StatusMessage reports scene switches, resets and errors
type StatusMessage struct {
	Type    string `json:"type"` // "scene", "reset" or "error"
	Scene   string `json:"scene,omitempty"`
	Message string `json:"message,omitempty"`
}

// ConsoleEvent wraps a console line for the socket
type ConsoleEvent struct {
	Type string `json:"type"` // "console"
	ConsoleMessage
}

// renderSession is one viewer connected to /ws/render
type renderSession struct {
	server    *Server
	conn      *websocket.Conn
	req       *RenderRequest
	sceneID   string
	raytracer *renderer.ProgressiveRaytracer
	recorder  *recorder.Writer
	logger    core.Logger
	console   chan ConsoleMessage
	send      chan interface{}
	started   time.Time
}

// handleRenderSocket upgrades to a WebSocket and renders progressively until
// the client disconnects. Scene errors are reported before the upgrade.
func (s *Server) handleRenderSocket(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	sceneObj, err := s.createScene(req.Scene, req.sampling())
	if err != nil {
		writeSceneError(w, req.Scene, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade: %v", err)
		return
	}
	defer conn.Close()

	session := s.newRenderSession(conn, req, sceneObj)
	session.run(context.Background())
}

func (s *Server) newRenderSession(conn *websocket.Conn, req *RenderRequest, sceneObj *scene.Scene) *renderSession {
	console := make(chan ConsoleMessage, 50)
	sessionID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	logger := NewWebLogger(sessionID, console)

	config := renderer.ProgressiveConfig{
		TileSize:   DefaultTileSize,
		MaxFrames:  req.MaxFrames,
		NumWorkers: s.config.NumWorkers,
	}

	session := &renderSession{
		server:    s,
		conn:      conn,
		req:       req,
		sceneID:   req.Scene,
		raytracer: renderer.NewProgressiveRaytracer(sceneObj, config, logger),
		logger:    logger,
		console:   console,
		send:      make(chan interface{}, 16),
		started:   time.Now(),
	}
	session.openRecorder(sceneObj)
	return session
}

// run drives the session until the client goes away
func (rs *renderSession) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	writerDone := make(chan struct{})
	go rs.writeLoop(ctx, cancel, writerDone)

	controls := make(chan ControlMessage)
	go rs.readLoop(ctx, cancel, controls)
	go rs.forwardConsole(ctx)

	defer func() {
		cancel()
		<-writerDone
		rs.raytracer.Close()
		rs.closeRecorder()
	}()

	for {
		apply, ok := rs.renderRun(ctx, controls)
		if !ok {
			return
		}
		apply()
	}
}

// renderRun renders up to the configured frame count and then idles. It returns
// when a control message needs the run restarted, or with ok=false once ctx ends.
func (rs *renderSession) renderRun(ctx context.Context, controls <-chan ControlMessage) (apply func(), ok bool) {
	runCtx, stopRun := context.WithCancel(ctx)
	frameChan, tileChan, errChan := rs.raytracer.RenderProgressive(runCtx, renderer.RenderOptions{TileUpdates: rs.req.Tiles})

	// The run must have finished before the scene or accumulation changes
	defer func() {
		stopRun()
		for range frameChan {
		}
		for range tileChan {
		}
		for range errChan {
		}
	}()

	// Closed channels are set to nil so an exhausted run idles on controls
	frames, tiles, errs := frameChan, tileChan, errChan

	for {
		select {
		case <-ctx.Done():
			return nil, false

		case msg := <-controls:
			if apply := rs.handleControl(ctx, msg); apply != nil {
				return apply, true
			}

		case result, open := <-frames:
			if !open {
				frames = nil
				continue
			}
			rs.sendFrame(ctx, result)

		case tile, open := <-tiles:
			if !open {
				tiles = nil
				continue
			}
			rs.sendTile(ctx, tile)

		case err, open := <-errs:
			if !open {
				errs = nil
				continue
			}
			if !errors.Is(err, context.Canceled) {
				rs.logger.Printf("Error rendering: %v\n", err)
				rs.sendStatus(ctx, StatusMessage{Type: "error", Message: err.Error()})
			}
		}
	}
}

// handleControl acts on a viewer message. The returned function, if any, is
// applied after the current run has stopped.
func (rs *renderSession) handleControl(ctx context.Context, msg ControlMessage) func() {
	switch msg.Type {
	case "switchScene":
		sceneObj, err := rs.server.createScene(msg.Scene, rs.req.sampling())
		if err != nil {
			rs.sendStatus(ctx, StatusMessage{Type: "error", Scene: msg.Scene, Message: err.Error()})
			return nil
		}
		return func() {
			rs.raytracer.SetScene(sceneObj)
			rs.sceneID = msg.Scene
			rs.closeRecorder()
			rs.openRecorder(sceneObj)
			rs.sendStatus(ctx, StatusMessage{Type: "scene", Scene: msg.Scene})
		}

	case "reset":
		return func() {
			rs.raytracer.Reset()
			rs.sendStatus(ctx, StatusMessage{Type: "reset", Scene: rs.sceneID})
		}

	case "save":
		rs.save(ctx)
		return nil

	default:
		rs.sendStatus(ctx, StatusMessage{Type: "error", Message: fmt.Sprintf("unknown message type %q", msg.Type)})
		return nil
	}
}

// save sends the current image and, when recording, writes a checkpoint
func (rs *renderSession) save(ctx context.Context) {
	state := rs.raytracer.Snapshot()
	imageData, err := imageToBase64PNG(rs.raytracer.Image())
	if err != nil {
		rs.sendStatus(ctx, StatusMessage{Type: "error", Message: "failed to encode image"})
		return
	}

	saved := SavedMessage{
		Type:       "saved",
		Scene:      rs.sceneID,
		FrameIndex: state.FrameIndex,
		ImageData:  imageData,
	}
	if rs.recorder != nil {
		path := filepath.Join(rs.recorder.Directory(), fmt.Sprintf("frame-%05d.ckpt.zst", state.FrameIndex))
		if err := recorder.SaveCheckpointFile(path, rs.raytracer.Scene().Name, state); err != nil {
			rs.logger.Printf("Error saving checkpoint: %v\n", err)
		} else {
			saved.Checkpoint = path
		}
	}
	rs.enqueue(ctx, saved)
}

func (rs *renderSession) sendFrame(ctx context.Context, result renderer.FrameResult) {
	imageData, err := imageToBase64PNG(result.Image)
	if err != nil {
		rs.logger.Printf("Error encoding frame %d: %v\n", result.FrameIndex, err)
		return
	}

	if rs.recorder != nil {
		if err := rs.recorder.AppendFrame(result.State, result.Stats); err != nil {
			rs.logger.Printf("Recording failed, disabling it: %v\n", err)
			rs.closeRecorder()
		}
	}

	stats := result.Stats
	rs.enqueue(ctx, FrameMessage{
		Type:          "frame",
		Scene:         rs.sceneID,
		FrameIndex:    result.FrameIndex,
		Width:         stats.Width,
		Height:        stats.Height,
		ImageData:     imageData,
		Samples:       stats.AccumulatedSamples,
		MeanChange:    stats.Convergence.MeanChange,
		StdDevChange:  stats.Convergence.StdDevChange,
		Rays:          stats.Trace.Rays,
		TriangleTests: stats.Trace.TriangleTests,
		BoxRejectRate: stats.BoxRejectRate(),
		FrameMs:       stats.Duration.Milliseconds(),
		ElapsedMs:     time.Since(rs.started).Milliseconds(),
		IsLast:        result.IsLast,
	})
}

func (rs *renderSession) sendTile(ctx context.Context, tile renderer.TileCompletionResult) {
	imageData, err := imageToBase64PNG(tile.TileImage)
	if err != nil {
		log.Printf("Error encoding tile image (%d, %d): %v", tile.TileX, tile.TileY, err)
		return
	}

	// Tiles are previews; drop them rather than delay frames
	select {
	case rs.send <- TileMessage{
		Type:       "tile",
		TileX:      tile.TileX,
		TileY:      tile.TileY,
		ImageData:  imageData,
		FrameIndex: tile.FrameIndex,
		TileNumber: tile.TileNumber,
		TotalTiles: tile.TotalTiles,
	}:
	case <-ctx.Done():
	default:
	}
}

func (rs *renderSession) sendStatus(ctx context.Context, msg StatusMessage) {
	rs.enqueue(ctx, msg)
}

func (rs *renderSession) enqueue(ctx context.Context, msg interface{}) {
	select {
	case rs.send <- msg:
	case <-ctx.Done():
	}
}

// writeLoop is the only goroutine writing to the connection
func (rs *renderSession) writeLoop(ctx context.Context, cancel context.CancelFunc, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(rs.server.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-rs.send:
			_ = rs.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := rs.conn.WriteJSON(msg); err != nil {
				cancel()
				return
			}
		case <-ticker.C:
			_ = rs.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := rs.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cancel()
				return
			}
		case <-ctx.Done():
			_ = rs.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		}
	}
}

// readLoop forwards control messages; a read error ends the session
func (rs *renderSession) readLoop(ctx context.Context, cancel context.CancelFunc, controls chan<- ControlMessage) {
	defer cancel()
	rs.conn.SetReadLimit(maxControlBytes)
	for {
		var msg ControlMessage
		if err := rs.conn.ReadJSON(&msg); err != nil {
			return
		}
		select {
		case controls <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// forwardConsole streams log lines to the viewer without ever blocking rendering
func (rs *renderSession) forwardConsole(ctx context.Context) {
	for {
		select {
		case msg := <-rs.console:
			select {
			case rs.send <- ConsoleEvent{Type: "console", ConsoleMessage: msg}:
			case <-ctx.Done():
				return
			default:
			}
		case <-ctx.Done():
			return
		}
	}
}

func (rs *renderSession) openRecorder(sceneObj *scene.Scene) {
	root := rs.server.config.RecordDir
	if root == "" {
		return
	}
	writer, manifest, err := recorder.NewWriter(root, sceneObj.Name,
		sceneObj.SamplingConfig.Width, sceneObj.SamplingConfig.Height, time.Now)
	if err != nil {
		rs.logger.Printf("Error starting recording: %v\n", err)
		return
	}
	rs.recorder = writer
	rs.logger.Printf("Recording %s to %s\n", manifest.Scene, writer.Directory())
}

func (rs *renderSession) closeRecorder() {
	if rs.recorder == nil {
		return
	}
	if err := rs.recorder.Close(); err != nil {
		rs.logger.Printf("Error closing recording: %v\n", err)
	}
	rs.recorder = nil
}

// Package recorder persists render sessions and accumulation checkpoints.
//
// A session directory holds a manifest, a snappy-compressed JSON line per
// rendered frame and a zstd-compressed stream of accumulated frames.
package recorder

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
)

var sessionCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

const (
	manifestFile = "manifest.json"
	eventsFile   = "events.jsonl.sz"
	framesFile   = "frames.bin.zst"

	// frameHeaderSize is frame index, width, height (uint32 each) and capture time (int64)
	frameHeaderSize = 4 + 4 + 4 + 8
)

// Manifest describes the session layout so tooling can locate artefacts
type Manifest struct {
	Version    int    `json:"version"`
	CreatedAt  string `json:"created_at"`
	Scene      string `json:"scene"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	EventsPath string `json:"events_path"`
	FramesPath string `json:"frames_path"`
}

// FrameEvent is one line of the event log
type FrameEvent struct {
	FrameIndex         int     `json:"frame_index"`
	CapturedAt         string  `json:"captured_at"`
	DurationMs         float64 `json:"duration_ms"`
	AccumulatedSamples int     `json:"accumulated_samples"`
	Rays               int64   `json:"rays"`
	TriangleTests      int64   `json:"triangle_tests"`
	BoxRejects         int64   `json:"box_rejects"`
	MeanChange         float64 `json:"mean_change"`
	StdDevChange       float64 `json:"stddev_change"`
}

// Writer streams a render session to disk
type Writer struct {
	mu          sync.Mutex
	dir         string
	now         func() time.Time
	manifest    Manifest
	eventFile   *os.File
	eventStream *snappy.Writer
	frameFile   *os.File
	frameStream *zstd.Encoder
	frames      int
}

// NewWriter creates a session directory under root and opens compressed sinks.
// The directory is named after the scene and the creation time.
func NewWriter(root, sceneName string, width, height int, clock func() time.Time) (*Writer, Manifest, error) {
	if root == "" {
		return nil, Manifest{}, fmt.Errorf("recording root must be provided")
	}
	if clock == nil {
		clock = time.Now
	}

	cleaned := sessionCleaner.ReplaceAllString(sceneName, "")
	if cleaned == "" {
		cleaned = "session"
	}
	created := clock().UTC()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, Manifest{}, err
	}
	path, err := makeSessionDir(filepath.Join(root, fmt.Sprintf("%s-%s", cleaned, created.Format("20060102T150405Z"))))
	if err != nil {
		return nil, Manifest{}, err
	}

	eventFile, err := os.Create(filepath.Join(path, eventsFile))
	if err != nil {
		return nil, Manifest{}, err
	}
	eventStream := snappy.NewBufferedWriter(eventFile)

	frameFile, err := os.Create(filepath.Join(path, framesFile))
	if err != nil {
		eventFile.Close()
		return nil, Manifest{}, err
	}
	frameStream, err := zstd.NewWriter(frameFile)
	if err != nil {
		eventStream.Close()
		eventFile.Close()
		frameFile.Close()
		return nil, Manifest{}, err
	}

	manifest := Manifest{
		Version:    1,
		CreatedAt:  created.Format(time.RFC3339Nano),
		Scene:      sceneName,
		Width:      width,
		Height:     height,
		EventsPath: eventsFile,
		FramesPath: framesFile,
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err == nil {
		err = os.WriteFile(filepath.Join(path, manifestFile), data, 0o644)
	}
	if err != nil {
		frameStream.Close()
		frameFile.Close()
		eventStream.Close()
		eventFile.Close()
		return nil, Manifest{}, err
	}

	return &Writer{
		dir:         path,
		now:         clock,
		manifest:    manifest,
		eventFile:   eventFile,
		eventStream: eventStream,
		frameFile:   frameFile,
		frameStream: frameStream,
	}, manifest, nil
}

// makeSessionDir creates base, or base-2, base-3... when sessions start within the same second
func makeSessionDir(base string) (string, error) {
	path := base
	for i := 2; ; i++ {
		err := os.Mkdir(path, 0o755)
		if err == nil {
			return path, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
		path = fmt.Sprintf("%s-%d", base, i)
	}
}

// Directory returns the session directory
func (w *Writer) Directory() string {
	if w == nil {
		return ""
	}
	return w.dir
}

// Frames returns the number of frames written so far
func (w *Writer) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// AppendFrame records an accumulated frame and its statistics
func (w *Writer) AppendFrame(state renderer.AccumulatorState, stats renderer.RenderStats) error {
	if w == nil {
		return fmt.Errorf("writer not initialised")
	}
	if state.Width != w.manifest.Width || state.Height != w.manifest.Height {
		return fmt.Errorf("frame is %dx%d, session is %dx%d",
			state.Width, state.Height, w.manifest.Width, w.manifest.Height)
	}
	captured := w.now().UTC()

	w.mu.Lock()
	defer w.mu.Unlock()

	event := FrameEvent{
		FrameIndex:         state.FrameIndex,
		CapturedAt:         captured.Format(time.RFC3339Nano),
		DurationMs:         float64(stats.Duration) / float64(time.Millisecond),
		AccumulatedSamples: stats.AccumulatedSamples,
		Rays:               stats.Trace.Rays,
		TriangleTests:      stats.Trace.TriangleTests,
		BoxRejects:         stats.Trace.BoxRejects,
		MeanChange:         stats.Convergence.MeanChange,
		StdDevChange:       stats.Convergence.StdDevChange,
	}
	line, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := w.eventStream.Write(append(line, '\n')); err != nil {
		return err
	}
	if err := w.eventStream.Flush(); err != nil {
		return err
	}

	if err := w.writeFrameLocked(state, captured); err != nil {
		return err
	}
	w.frames++
	return nil
}

// writeFrameLocked writes a length-implied frame record: a fixed header followed by
// float32 RGB triples. Callers must hold the mutex.
func (w *Writer) writeFrameLocked(state renderer.AccumulatorState, captured time.Time) error {
	buf := make([]byte, frameHeaderSize+len(state.Pixels)*12)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(state.FrameIndex))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(state.Width))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(state.Height))
	binary.LittleEndian.PutUint64(buf[12:20], uint64(captured.UnixNano()))

	offset := frameHeaderSize
	for _, p := range state.Pixels {
		binary.LittleEndian.PutUint32(buf[offset:], math.Float32bits(float32(p.X)))
		binary.LittleEndian.PutUint32(buf[offset+4:], math.Float32bits(float32(p.Y)))
		binary.LittleEndian.PutUint32(buf[offset+8:], math.Float32bits(float32(p.Z)))
		offset += 12
	}

	_, err := w.frameStream.Write(buf)
	return err
}

// Close flushes all buffers and releases file handles
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	// Attempt every flush/close and surface the first failure
	var firstErr error
	for _, closeFn := range []func() error{
		w.eventStream.Flush,
		w.eventStream.Close,
		w.eventFile.Close,
		w.frameStream.Close,
		w.frameFile.Close,
	} {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

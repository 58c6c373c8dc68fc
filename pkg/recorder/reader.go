package recorder

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// RecordedFrame is an accumulated frame read back from a session
type RecordedFrame struct {
	FrameIndex int
	Width      int
	Height     int
	CapturedAt time.Time
	Pixels     []core.Vec3
}

// ReadManifest loads the manifest of the session in dir
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return manifest, nil
}

// ReadEvents decodes every event of the session in dir
func ReadEvents(dir string) ([]FrameEvent, error) {
	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(dir, manifest.EventsPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var events []FrameEvent
	scanner := bufio.NewScanner(snappy.NewReader(file))
	for line := 1; scanner.Scan(); line++ {
		var event FrameEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			return nil, fmt.Errorf("event line %d: %w", line, err)
		}
		events = append(events, event)
	}
	return events, scanner.Err()
}

// ReadFrames decodes every frame of the session in dir
func ReadFrames(dir string) ([]RecordedFrame, error) {
	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(dir, manifest.FramesPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	var frames []RecordedFrame
	header := make([]byte, frameHeaderSize)
	for {
		if _, err := io.ReadFull(decoder, header); err != nil {
			if errors.Is(err, io.EOF) {
				return frames, nil
			}
			return nil, fmt.Errorf("frame %d header: %w", len(frames), err)
		}

		frame := RecordedFrame{
			FrameIndex: int(binary.LittleEndian.Uint32(header[0:4])),
			Width:      int(binary.LittleEndian.Uint32(header[4:8])),
			Height:     int(binary.LittleEndian.Uint32(header[8:12])),
			CapturedAt: time.Unix(0, int64(binary.LittleEndian.Uint64(header[12:20]))).UTC(),
		}
		if frame.Width != manifest.Width || frame.Height != manifest.Height {
			return nil, fmt.Errorf("frame %d is %dx%d, session is %dx%d",
				len(frames), frame.Width, frame.Height, manifest.Width, manifest.Height)
		}

		body := make([]byte, frame.Width*frame.Height*12)
		if _, err := io.ReadFull(decoder, body); err != nil {
			return nil, fmt.Errorf("frame %d pixels: %w", len(frames), err)
		}
		frame.Pixels = make([]core.Vec3, frame.Width*frame.Height)
		for i := range frame.Pixels {
			offset := i * 12
			frame.Pixels[i] = core.NewVec3(
				float64(math.Float32frombits(binary.LittleEndian.Uint32(body[offset:]))),
				float64(math.Float32frombits(binary.LittleEndian.Uint32(body[offset+4:]))),
				float64(math.Float32frombits(binary.LittleEndian.Uint32(body[offset+8:]))),
			)
		}
		frames = append(frames, frame)
	}
}

package recorder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
)

// ErrCheckpointMismatch is returned when a checkpoint belongs to another scene or resolution
var ErrCheckpointMismatch = errors.New("checkpoint does not match scene")

const (
	checkpointMagic   = "PTCK"
	checkpointVersion = 1
)

// checkpointHeader precedes the pixels of a checkpoint
type checkpointHeader struct {
	Version    uint32
	Width      uint32
	Height     uint32
	FrameIndex uint32
	NameLength uint32
}

// SaveCheckpoint writes accumulated state so rendering can resume later.
// Pixels are stored at full precision, so a resumed accumulation continues exactly.
func SaveCheckpoint(w io.Writer, sceneName string, state renderer.AccumulatorState) error {
	encoder, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}

	header := checkpointHeader{
		Version:    checkpointVersion,
		Width:      uint32(state.Width),
		Height:     uint32(state.Height),
		FrameIndex: uint32(state.FrameIndex),
		NameLength: uint32(len(sceneName)),
	}
	if err := writeCheckpoint(encoder, header, sceneName, state.Pixels); err != nil {
		encoder.Close()
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return encoder.Close()
}

func writeCheckpoint(w io.Writer, header checkpointHeader, sceneName string, pixels []core.Vec3) error {
	if _, err := io.WriteString(w, checkpointMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	if _, err := io.WriteString(w, sceneName); err != nil {
		return err
	}

	buf := make([]byte, 24)
	for _, p := range pixels {
		binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(p.X))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(p.Y))
		binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(p.Z))
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// LoadCheckpoint reads a checkpoint written by SaveCheckpoint. It fails with
// ErrCheckpointMismatch unless the checkpoint was taken of sceneName at
// width x height.
func LoadCheckpoint(r io.Reader, sceneName string, width, height int) (renderer.AccumulatorState, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return renderer.AccumulatorState{}, err
	}
	defer decoder.Close()

	magic := make([]byte, len(checkpointMagic))
	if _, err := io.ReadFull(decoder, magic); err != nil {
		return renderer.AccumulatorState{}, fmt.Errorf("read checkpoint: %w", err)
	}
	if string(magic) != checkpointMagic {
		return renderer.AccumulatorState{}, fmt.Errorf("not a checkpoint file")
	}

	var header checkpointHeader
	if err := binary.Read(decoder, binary.LittleEndian, &header); err != nil {
		return renderer.AccumulatorState{}, fmt.Errorf("read checkpoint header: %w", err)
	}
	if header.Version != checkpointVersion {
		return renderer.AccumulatorState{}, fmt.Errorf("unsupported checkpoint version %d", header.Version)
	}
	if header.NameLength > 4096 {
		return renderer.AccumulatorState{}, fmt.Errorf("invalid scene name length %d", header.NameLength)
	}

	name := make([]byte, header.NameLength)
	if _, err := io.ReadFull(decoder, name); err != nil {
		return renderer.AccumulatorState{}, fmt.Errorf("read checkpoint scene: %w", err)
	}
	if string(name) != sceneName || int(header.Width) != width || int(header.Height) != height {
		return renderer.AccumulatorState{}, fmt.Errorf("%w: checkpoint is %q at %dx%d, want %q at %dx%d",
			ErrCheckpointMismatch, name, header.Width, header.Height, sceneName, width, height)
	}

	state := renderer.AccumulatorState{
		Width:      width,
		Height:     height,
		FrameIndex: int(header.FrameIndex),
		Pixels:     make([]core.Vec3, width*height),
	}
	buf := make([]byte, 24)
	for i := range state.Pixels {
		if _, err := io.ReadFull(decoder, buf); err != nil {
			return renderer.AccumulatorState{}, fmt.Errorf("read checkpoint pixel %d: %w", i, err)
		}
		state.Pixels[i] = core.NewVec3(
			math.Float64frombits(binary.LittleEndian.Uint64(buf[0:])),
			math.Float64frombits(binary.LittleEndian.Uint64(buf[8:])),
			math.Float64frombits(binary.LittleEndian.Uint64(buf[16:])),
		)
	}
	return state, nil
}

// SaveCheckpointFile writes a checkpoint to path
func SaveCheckpointFile(path, sceneName string, state renderer.AccumulatorState) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := SaveCheckpoint(file, sceneName, state); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// LoadCheckpointFile reads a checkpoint from path
func LoadCheckpointFile(path, sceneName string, width, height int) (renderer.AccumulatorState, error) {
	file, err := os.Open(path)
	if err != nil {
		return renderer.AccumulatorState{}, err
	}
	defer file.Close()
	return LoadCheckpoint(file, sceneName, width, height)
}

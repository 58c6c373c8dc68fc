package rpc

import (
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// FrameRequest selects the scene and render settings of a frame stream.
// Zero values fall back to the scene's defaults.
type FrameRequest struct {
	Scene           string
	Width           int
	Height          int
	SamplesPerPixel int
	MaxBounces      int
	Frames          int
}

// FrameUpdate is one accumulated frame sent to a client
type FrameUpdate struct {
	FrameIndex   int
	Width        int
	Height       int
	PNG          []byte
	MeanChange   float64
	StdDevChange float64
	Rays         int64
	DurationMs   float64
	IsLast       bool
}

// toStruct encodes the request as a protobuf Struct
func (r FrameRequest) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"scene":   r.Scene,
		"width":   r.Width,
		"height":  r.Height,
		"samples": r.SamplesPerPixel,
		"bounces": r.MaxBounces,
		"frames":  r.Frames,
	})
}

// requestFromStruct decodes a request, rejecting fields of the wrong kind
func requestFromStruct(s *structpb.Struct) (FrameRequest, error) {
	var req FrameRequest
	var err error
	fields := s.GetFields()

	if v, ok := fields["scene"]; ok {
		sv, isString := v.GetKind().(*structpb.Value_StringValue)
		if !isString {
			return req, fmt.Errorf("field scene must be a string")
		}
		req.Scene = sv.StringValue
	}
	for name, target := range map[string]*int{
		"width":   &req.Width,
		"height":  &req.Height,
		"samples": &req.SamplesPerPixel,
		"bounces": &req.MaxBounces,
		"frames":  &req.Frames,
	} {
		if *target, err = intField(fields, name); err != nil {
			return req, err
		}
	}
	return req, nil
}

func intField(fields map[string]*structpb.Value, name string) (int, error) {
	v, ok := fields[name]
	if !ok {
		return 0, nil
	}
	nv, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, fmt.Errorf("field %s must be a number", name)
	}
	if nv.NumberValue != float64(int(nv.NumberValue)) {
		return 0, fmt.Errorf("field %s must be an integer", name)
	}
	return int(nv.NumberValue), nil
}

// toStruct encodes the update as a protobuf Struct; the PNG is base64 text
func (u FrameUpdate) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"frame_index":   u.FrameIndex,
		"width":         u.Width,
		"height":        u.Height,
		"png":           base64.StdEncoding.EncodeToString(u.PNG),
		"mean_change":   u.MeanChange,
		"stddev_change": u.StdDevChange,
		"rays":          u.Rays,
		"duration_ms":   u.DurationMs,
		"is_last":       u.IsLast,
	})
}

// updateFromStruct decodes an update received from the server
func updateFromStruct(s *structpb.Struct) (FrameUpdate, error) {
	fields := s.GetFields()
	png, err := base64.StdEncoding.DecodeString(fields["png"].GetStringValue())
	if err != nil {
		return FrameUpdate{}, fmt.Errorf("decode png: %w", err)
	}
	return FrameUpdate{
		FrameIndex:   int(fields["frame_index"].GetNumberValue()),
		Width:        int(fields["width"].GetNumberValue()),
		Height:       int(fields["height"].GetNumberValue()),
		PNG:          png,
		MeanChange:   fields["mean_change"].GetNumberValue(),
		StdDevChange: fields["stddev_change"].GetNumberValue(),
		Rays:         int64(fields["rays"].GetNumberValue()),
		DurationMs:   fields["duration_ms"].GetNumberValue(),
		IsLast:       fields["is_last"].GetBoolValue(),
	}, nil
}

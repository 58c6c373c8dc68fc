package rpc

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// StreamFrames requests a frame stream and calls fn for every frame received.
// It returns when the server ends the stream, fn returns an error or ctx ends.
func StreamFrames(ctx context.Context, conn grpc.ClientConnInterface, req FrameRequest, fn func(FrameUpdate) error) error {
	reqStruct, err := req.toStruct()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := conn.NewStream(ctx, &frameServiceDesc.Streams[0], streamFramesMethod)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(reqStruct); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		update, err := updateFromStruct(msg)
		if err != nil {
			return err
		}
		if err := fn(update); err != nil {
			return err
		}
	}
}

// Package mux implements the container stage: encoded packets in, MP4 bytes out.
package mux

import (
	"context"
	"fmt"

	"github.com/phoohow/codec/pkg/pipeline"
	"github.com/phoohow/codec/pkg/ports"
)

// Stage wraps a ports.PacketMuxer.
type Stage struct {
	muxer  ports.PacketMuxer
	logger ports.Logger
}

// NewStage creates a new mux stage.
func NewStage(muxer ports.PacketMuxer, logger ports.Logger) *Stage {
	return &Stage{
		muxer:  muxer,
		logger: logger.WithComponent("mux"),
	}
}

// Execute muxes input.Packets.
func (s *Stage) Execute(ctx context.Context, input pipeline.MuxInput) (pipeline.MuxResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.MuxResult{}, err
	}
	data, err := s.muxer.Mux(input.Packets, input.Options)
	if err != nil {
		return pipeline.MuxResult{}, fmt.Errorf("mux %d packets: %w", len(input.Packets), err)
	}
	s.logger.Debug("Muxed %d packets into %d bytes", len(input.Packets), len(data))
	return pipeline.MuxResult{Data: data}, nil
}

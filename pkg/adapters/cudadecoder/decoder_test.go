package cudadecoder

import (
	"errors"
	"testing"

	"github.com/phoohow/codec/pkg/adapters/hostcompute"
	"github.com/phoohow/codec/pkg/adapters/logger"
	"github.com/phoohow/codec/pkg/mocks"
	"github.com/phoohow/codec/pkg/ports"
)

func newParams(codec ports.CodecType) ports.CreateParams {
	return ports.CreateParams{
		Device:      hostcompute.New(),
		Width:       32,
		Height:      16,
		DeviceType:  ports.DeviceCUDA,
		CodecType:   codec,
		PixelFormat: ports.PixelFormatNV12,
	}
}

func TestDecoder_CodecMapping(t *testing.T) {
	tests := []struct {
		codec ports.CodecType
		want  ports.CodecType
	}{
		{ports.CodecH264, ports.CodecH264},
		{ports.CodecH265, ports.CodecH265},
		{ports.CodecAV1, ports.CodecH264},
		{ports.CodecType(99), ports.CodecH264},
	}

	for _, tt := range tests {
		sdk := &mocks.CodecSDK{}
		dec := New(sdk, logger.NewNoop())
		if err := dec.Initialize(newParams(tt.codec)); err != nil {
			t.Fatalf("%s: Initialize failed: %v", tt.codec, err)
		}
		got := sdk.DecodeParams[0]
		if got.Codec != tt.want {
			t.Errorf("%s: session codec = %s, want %s", tt.codec, got.Codec, tt.want)
		}
		if got.MaxWidth != 32 || got.MaxHeight != 16 {
			t.Errorf("%s: max size = %dx%d, want 32x16", tt.codec, got.MaxWidth, got.MaxHeight)
		}
		dec.Destroy()
	}
}

func TestDecoder_DecodeAndFlush(t *testing.T) {
	sdk := &mocks.CodecSDK{Latency: 2}
	dec := New(sdk, logger.NewNoop())
	defer dec.Destroy()
	if err := dec.Initialize(newParams(ports.CodecH264)); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	var frames []*ports.FrameData
	for i := 0; i < 4; i++ {
		f, err := dec.DecodePacket(ports.CodecPacket{Data: []byte{0, 0, 0, 1, byte(i + 1)}, Timestamp: uint64(i)})
		switch {
		case errors.Is(err, ports.ErrNoOutput):
		case err != nil:
			t.Fatalf("packet %d: %v", i, err)
		default:
			frames = append(frames, f)
		}
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames before flush, got %d", len(frames))
	}

	for {
		f, err := dec.Flush()
		if errors.Is(err, ports.ErrNothingToFlush) {
			break
		}
		if err != nil {
			t.Fatalf("Flush failed: %v", err)
		}
		frames = append(frames, f)
	}

	if len(frames) != 4 {
		t.Fatalf("expected 4 frames, got %d", len(frames))
	}
	wantSize := ports.PixelFormatNV12.FrameSize(32, 16)
	for i, f := range frames {
		if f.Timestamp != uint64(i) {
			t.Errorf("frame %d has timestamp %d", i, f.Timestamp)
		}
		if f.Size() != wantSize {
			t.Errorf("frame %d size = %d, want %d", i, f.Size(), wantSize)
		}
		if f.Data[0] != byte(i+1) {
			t.Errorf("frame %d carries data of another packet", i)
		}
	}
	if n := sdk.DecodeSessions[0].EndOfStream; n != 1 {
		t.Errorf("end of stream signaled %d times, want 1", n)
	}
}

func TestDecoder_FrameDataIsCopied(t *testing.T) {
	shared := []byte{7, 7, 7}
	sdk := &mocks.CodecSDK{
		OpenComputeDecoderFunc: func(ports.ComputeContext, ports.DecodeSessionParams) (ports.DecodeSession, error) {
			s := &mocks.DecodeSession{}
			s.DecodeFunc = func([]byte, uint64) (int, error) { return 1, nil }
			return &sharedFrameSession{DecodeSession: s, frame: shared}, nil
		},
	}
	dec := New(sdk, logger.NewNoop())
	defer dec.Destroy()
	if err := dec.Initialize(newParams(ports.CodecH264)); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	f, err := dec.DecodePacket(ports.CodecPacket{Data: []byte{1}})
	if err != nil {
		t.Fatalf("DecodePacket failed: %v", err)
	}
	shared[0] = 0
	if f.Data[0] != 7 {
		t.Error("frame data aliases the SDK buffer")
	}
}

// sharedFrameSession always returns the same backing slice.
type sharedFrameSession struct {
	*mocks.DecodeSession
	frame []byte
}

func (s *sharedFrameSession) NextFrame() ([]byte, uint64, bool) {
	return s.frame, 0, true
}

func TestDecoder_Errors(t *testing.T) {
	sdk := &mocks.CodecSDK{}
	dec := New(sdk, logger.NewNoop())

	if _, err := dec.DecodePacket(ports.CodecPacket{Data: []byte{1}}); !errors.Is(err, ports.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
	if _, err := dec.Flush(); !errors.Is(err, ports.ErrNotInitialized) {
		t.Errorf("Flush: expected ErrNotInitialized, got %v", err)
	}

	params := newParams(ports.CodecH264)
	params.DeviceType = ports.DeviceDX12
	if err := dec.Initialize(params); !errors.Is(err, ports.ErrDeviceMismatch) {
		t.Errorf("expected ErrDeviceMismatch, got %v", err)
	}
	if sdk.Opened() != 0 {
		t.Error("no session should be opened on mismatch")
	}

	if err := dec.Initialize(newParams(ports.CodecH264)); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer dec.Destroy()
	if _, err := dec.DecodePacket(ports.CodecPacket{}); !errors.Is(err, ports.ErrInvalidFrame) {
		t.Errorf("empty packet: expected ErrInvalidFrame, got %v", err)
	}

	sdk.DecodeSessions[0].DecodeFunc = func([]byte, uint64) (int, error) {
		return 0, errors.New("bitstream error")
	}
	if _, err := dec.DecodePacket(ports.CodecPacket{Data: []byte{1}}); !errors.Is(err, ports.ErrSDKFailure) {
		t.Errorf("expected ErrSDKFailure, got %v", err)
	}
}

func TestDecoder_DestroyIdempotent(t *testing.T) {
	sdk := &mocks.CodecSDK{}
	dec := New(sdk, logger.NewNoop())
	dec.Destroy()
	if err := dec.Initialize(newParams(ports.CodecH265)); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	dec.Destroy()
	dec.Destroy()
	if !sdk.DecodeSessions[0].Closed {
		t.Error("session was not closed")
	}
}

func TestDecoder_SDKPanicBecomesError(t *testing.T) {
	decode := func(d *Decoder) error {
		_, err := d.DecodePacket(ports.CodecPacket{Data: []byte{0, 0, 0, 1, 0x65}})
		return err
	}
	flush := func(d *Decoder) error {
		_, err := d.Flush()
		return err
	}

	tests := []struct {
		name string
		arm  func(*mocks.DecodeSession)
		call func(*Decoder) error
	}{
		{"decode", func(s *mocks.DecodeSession) { s.Panic = "bad bitstream" }, decode},
		{"next frame after decode", func(s *mocks.DecodeSession) { s.NextFramePanic = "get frame failed" }, decode},
		{"end of stream", func(s *mocks.DecodeSession) { s.Panic = "bad bitstream" }, flush},
		{"next frame after flush", func(s *mocks.DecodeSession) { s.NextFramePanic = "get frame failed" }, flush},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sdk := &mocks.CodecSDK{}
			dec := New(sdk, logger.NewNoop())
			defer dec.Destroy()
			if err := dec.Initialize(newParams(ports.CodecH264)); err != nil {
				t.Fatalf("Initialize failed: %v", err)
			}
			tt.arm(sdk.DecodeSessions[0])

			if err := tt.call(dec); !errors.Is(err, ports.ErrSDKFailure) {
				t.Fatalf("expected ErrSDKFailure, got %v", err)
			}
		})
	}
}

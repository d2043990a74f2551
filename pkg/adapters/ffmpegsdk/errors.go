package ffmpegsdk

import "errors"

var (
	// ErrFFmpegNotFound is returned when no ffmpeg binary can be located.
	ErrFFmpegNotFound = errors.New("ffmpegsdk: ffmpeg not found")

	// ErrSessionEnded is returned when a session is used after end of stream.
	ErrSessionEnded = errors.New("ffmpegsdk: session already ended")

	// ErrNoCurrentFrame is returned by Encode without a preceding NextInputFrame.
	ErrNoCurrentFrame = errors.New("ffmpegsdk: no input frame acquired")
)

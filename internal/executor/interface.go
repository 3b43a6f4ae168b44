package executor

import "context"

// Executor runs external programs such as the whisper CLI and ffmpeg.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (string, error)
}

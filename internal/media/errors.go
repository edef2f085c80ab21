package media

import "errors"

// ErrProbe indicates the duration of a file could not be determined.
// Fatal for the file's job: no chunking decision is possible without it.
var ErrProbe = errors.New("cannot determine audio duration")

// ErrSegment indicates ffmpeg failed to materialize one chunk window.
var ErrSegment = errors.New("audio segmentation failed")

// ErrToolNotFound indicates ffmpeg or ffprobe is not on PATH.
var ErrToolNotFound = errors.New("ffmpeg/ffprobe not found")

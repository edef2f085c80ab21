package transcribe

import "errors"

// ErrServer indicates an HTTP 500 from the transcription service.
// Transient; consumed by the retry controller.
var ErrServer = errors.New("transcription server error")

// ErrTransport indicates the request never completed (network failure,
// timeout). Treated the same as a server error: transient, retryable.
var ErrTransport = errors.New("transcription transport error")

// ErrRequest indicates a non-200, non-500 response: a deterministic client
// error (bad request, auth failure, payload too large). Never retried.
var ErrRequest = errors.New("transcription request rejected")

// IsRetryable reports whether the retry controller should consume err and
// try again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServer) || errors.Is(err, ErrTransport)
}

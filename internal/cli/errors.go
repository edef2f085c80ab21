package cli

import "errors"

// CLI-specific sentinel errors.
// These are validation/usage errors that don't belong to domain packages.

var (
	// ErrFileNotFound indicates the specified input file does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedFormat indicates an audio file has an unsupported extension.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrEndpointMissing indicates AZURE_OPENAI_ENDPOINT is not set.
	ErrEndpointMissing = errors.New("AZURE_OPENAI_ENDPOINT environment variable not set")

	// ErrUnknownAuthScheme indicates an unrecognized --auth value.
	ErrUnknownAuthScheme = errors.New("unknown auth scheme (use entra or api-key)")

	// ErrInvalidLanguage indicates a language code that does not parse as BCP 47.
	ErrInvalidLanguage = errors.New("invalid language code")

	// ErrNoTranscriptions indicates a batch in which every file failed.
	ErrNoTranscriptions = errors.New("no files were transcribed successfully")

	// ErrInvalidSchedule indicates an unparseable cron expression.
	ErrInvalidSchedule = errors.New("invalid cron schedule")
)

package auth

import "errors"

// ErrAPIKeyMissing indicates AZURE_OPENAI_API_KEY is not set while the
// api-key scheme was selected.
var ErrAPIKeyMissing = errors.New("AZURE_OPENAI_API_KEY environment variable not set")

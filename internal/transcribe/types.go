package transcribe

import "time"

// Segment is one diarized span of the transcript. Start/End are seconds
// relative to the audio that produced it (chunk-local until merged). The
// merger rewrites Start/End and ID only; Text and Speaker are read-only
// after the service returns them.
type Segment struct {
	ID      string  `json:"id"`
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Usage holds the token counters returned per request. All fields are
// field-wise summable across chunks.
type Usage struct {
	TotalTokens  int `json:"total_tokens"`
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	AudioTokens  int `json:"audio_tokens"`
	TextTokens   int `json:"text_tokens"`
}

// Add returns the field-wise sum of two Usage values.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		TotalTokens:  u.TotalTokens + o.TotalTokens,
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
		AudioTokens:  u.AudioTokens + o.AudioTokens,
		TextTokens:   u.TextTokens + o.TextTokens,
	}
}

// Result is the accepted payload of one transcription request. One record
// shape regardless of transport path (wire or SDK); the SDK path leaves
// Segments empty.
type Result struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Usage    Usage     `json:"usage"`
}

// ChunkResult is the accepted outcome for one chunk: the payload plus the
// accounting the operator scripts record. DurationSeconds is the wall-clock
// latency of the accepted attempt, not audio length.
type ChunkResult struct {
	ChunkNumber     int
	Result          Result
	Usage           Usage
	DurationSeconds float64
	Timestamp       time.Time // start of the accepted attempt
}

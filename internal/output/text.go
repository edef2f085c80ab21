package output

import (
	"fmt"
	"strings"

	"github.com/veritas-legal/deposcribe/internal/format"
	"github.com/veritas-legal/deposcribe/internal/merge"
	"github.com/veritas-legal/deposcribe/internal/transcribe"
)

const bannerWidth = 80

func banner(title string) string {
	line := strings.Repeat("=", bannerWidth)
	return line + "\n" + title + "\n" + line + "\n"
}

// speakerGroup is a run of consecutive segments attributed to one speaker.
type speakerGroup struct {
	Speaker string
	Start   float64
	Text    string
}

// groupBySpeaker collapses consecutive same-speaker segments into single
// paragraphs so the rendered transcript reads like a court record.
func groupBySpeaker(segments []transcribe.Segment) []speakerGroup {
	var groups []speakerGroup
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if n := len(groups); n > 0 && groups[n-1].Speaker == seg.Speaker {
			groups[n-1].Text += " " + text
			continue
		}
		groups = append(groups, speakerGroup{Speaker: seg.Speaker, Start: seg.Start, Text: text})
	}
	return groups
}

// countSpeakers returns the number of distinct speaker labels.
func countSpeakers(segments []transcribe.Segment) int {
	seen := map[string]struct{}{}
	for _, seg := range segments {
		seen[seg.Speaker] = struct{}{}
	}
	return len(seen)
}

// timelineEnd is the end of the last segment, the rendered duration.
func timelineEnd(segments []transcribe.Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].End
}

// renderTranscript produces the full text document for a merged transcript.
func renderTranscript(tr merge.Transcript, audioName, model string) string {
	var b strings.Builder

	b.WriteString(banner("DEPOSITION TRANSCRIPTION"))
	fmt.Fprintf(&b, "Date: %s\n", tr.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Audio File: %s\n", audioName)
	fmt.Fprintf(&b, "Model: %s\n", model)
	fmt.Fprintf(&b, "Chunks Processed: %d\n", tr.ChunksProcessed)
	fmt.Fprintf(&b, "Processing Time: %.1f seconds\n", tr.DurationSeconds)
	fmt.Fprintf(&b, "Total Tokens: %s\n", format.Comma(tr.Usage.TotalTokens))
	fmt.Fprintf(&b, "  Input Tokens: %s\n", format.Comma(tr.Usage.InputTokens))
	fmt.Fprintf(&b, "    Audio Tokens: %s\n", format.Comma(tr.Usage.AudioTokens))
	fmt.Fprintf(&b, "    Text Tokens: %s\n", format.Comma(tr.Usage.TextTokens))
	fmt.Fprintf(&b, "  Output Tokens: %s\n", format.Comma(tr.Usage.OutputTokens))
	b.WriteString("\n")

	b.WriteString(banner("FULL TRANSCRIPT"))
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(tr.Result.Text))
	b.WriteString("\n\n")

	b.WriteString(banner("SPEAKER-SEGMENTED TRANSCRIPT"))
	b.WriteString("\n")
	for _, g := range groupBySpeaker(tr.Result.Segments) {
		fmt.Fprintf(&b, "[%s] Speaker %s:\n%s\n\n", format.Timestamp(g.Start), g.Speaker, g.Text)
	}

	b.WriteString(banner("STATISTICS"))
	fmt.Fprintf(&b, "Chunks: %d\n", tr.ChunksProcessed)
	fmt.Fprintf(&b, "Segments: %d\n", len(tr.Result.Segments))
	fmt.Fprintf(&b, "Speakers: %d\n", countSpeakers(tr.Result.Segments))
	fmt.Fprintf(&b, "Total Tokens: %s\n", format.Comma(tr.Usage.TotalTokens))
	fmt.Fprintf(&b, "Duration: %s\n", format.Timestamp(timelineEnd(tr.Result.Segments)))

	return b.String()
}

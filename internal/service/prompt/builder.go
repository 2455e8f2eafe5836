package prompt

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zhouzirui/fluency-coach/backend/internal/model/therapy"
)

const (
	fallbackDescription = "speech dysfluency event"
	emptySummary        = "none"
	emptyEventsBullet   = "- (no events detected)"
	missingConfidence   = "n/a"
)

var labelDescriptions = map[string]string{
	therapy.LabelBlock:        "silent pause or difficulty initiating sound",
	therapy.LabelProlongation: "stretching a sound longer than typical",
	therapy.LabelRepetition:   "repeating a sound, syllable, or word",
	therapy.LabelMissing:      "omission of a sound/word",
	therapy.LabelReplacement:  "substituting one sound/word for another",
	therapy.DegradedLabel:     "YOLO-Stutter not installed yet",
}

const therapyTemplate = `You are a certified speech-language pathologist (SLP).

Task:
Given dysfluency detection output, create a personalized, practical therapy plan that a user can follow at home.

Detected event summary:
%s

Detected events (time-aligned):
%s

Requirements for your response:
- Give 3–5 exercises max.
- For each exercise: goal, how to do it, duration/reps, and a quick tip.
- Tailor the exercises to the detected dysfluency types (especially the most common types).
- Keep it supportive, simple, and actionable (no medical diagnosis claims).
- Output as clear bullet points.
`

// Describe returns the human-readable description of a dysfluency label.
func Describe(label string) string {
	if desc, ok := labelDescriptions[label]; ok {
		return desc
	}
	return fallbackDescription
}

// Build renders the therapy instruction document for events.
// The output depends only on events and their order.
func Build(events []therapy.DysfluencyEvent) string {
	return fmt.Sprintf(therapyTemplate, SummaryLine(events), EventsBlock(events))
}

// SummaryLine renders "label: count" pairs in first-seen order, or "none".
func SummaryLine(events []therapy.DysfluencyEvent) string {
	summary := therapy.Summarize(events)
	if len(summary) == 0 {
		return emptySummary
	}

	parts := make([]string, 0, len(summary))
	for _, lc := range summary {
		parts = append(parts, fmt.Sprintf("%s: %d", lc.Label, lc.Count))
	}
	return strings.Join(parts, ", ")
}

// EventsBlock renders one bullet per event, or the placeholder bullet when there are none.
func EventsBlock(events []therapy.DysfluencyEvent) string {
	if len(events) == 0 {
		return emptyEventsBullet
	}

	bullets := make([]string, 0, len(events))
	for _, e := range events {
		bullets = append(bullets, formatBullet(e))
	}
	return strings.Join(bullets, "\n")
}

func formatBullet(e therapy.DysfluencyEvent) string {
	label := e.LabelOrUnknown()
	return fmt.Sprintf("- %s (%s) at %.2fs–%.2fs, confidence=%s",
		label,
		Describe(label),
		e.Start,
		e.End,
		formatConfidence(e.Confidence),
	)
}

// formatConfidence prints the shortest round-trip decimal, keeping ".0" on integral
// values. Magnitudes below 1e-4 or from 1e16 up switch to exponent form ("1e-05").
func formatConfidence(c *float64) string {
	if c == nil {
		return missingConfidence
	}
	v := *c
	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

package therapy

// DegradedLabel marks the synthetic event emitted when no detection model is configured.
const DegradedLabel = "needs_yolo_setup"

// Labels the detection model is known to emit.
const (
	LabelBlock        = "block"
	LabelProlongation = "prolongation"
	LabelRepetition   = "repetition"
	LabelMissing      = "missing"
	LabelReplacement  = "replacement"
)

// OtherLabel groups labels outside the known vocabulary.
const OtherLabel = "other"

var vocabulary = map[string]struct{}{
	LabelBlock:        {},
	LabelProlongation: {},
	LabelRepetition:   {},
	LabelMissing:      {},
	LabelReplacement:  {},
	DegradedLabel:     {},
}

// DysfluencyEvent 描述检测模型输出的一个带标签的时间区间。
type DysfluencyEvent struct {
	Label      string   `json:"label"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Confidence *float64 `json:"confidence,omitempty"`
	Note       string   `json:"note,omitempty"`
}

// LabelOrUnknown returns the event label, or "unknown" when the detector left it empty.
func (e DysfluencyEvent) LabelOrUnknown() string {
	if e.Label == "" {
		return "unknown"
	}
	return e.Label
}

// VocabularyLabel maps the label onto a bounded set: known labels, "unknown"
// for an empty label, and OtherLabel for anything else.
func (e DysfluencyEvent) VocabularyLabel() string {
	label := e.LabelOrUnknown()
	if label == "unknown" {
		return label
	}
	if _, ok := vocabulary[label]; ok {
		return label
	}
	return OtherLabel
}

// Confidence wraps a literal confidence value for event construction.
func Confidence(v float64) *float64 {
	return &v
}

// LabelCount is one entry of an EventSummary.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// EventSummary counts events per label, ordered by first occurrence.
type EventSummary []LabelCount

// Summarize builds the per-label counts of events.
func Summarize(events []DysfluencyEvent) EventSummary {
	summary := make(EventSummary, 0, len(events))
	index := make(map[string]int, len(events))
	for _, e := range events {
		label := e.LabelOrUnknown()
		if i, ok := index[label]; ok {
			summary[i].Count++
			continue
		}
		index[label] = len(summary)
		summary = append(summary, LabelCount{Label: label, Count: 1})
	}
	return summary
}

// Count returns the occurrences recorded for label.
func (s EventSummary) Count(label string) int {
	for _, lc := range s {
		if lc.Label == label {
			return lc.Count
		}
	}
	return 0
}

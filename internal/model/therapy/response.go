package therapy

// Response is the payload returned by POST /api/process.
type Response struct {
	TherapyOutput  string            `json:"therapy_output"`
	DetectedEvents []DysfluencyEvent `json:"detected_events"`
	PromptUsed     string            `json:"prompt_used"`
}

package prompt

// AnalysisPromptVars holds variables for the full analysis prompt.
type AnalysisPromptVars struct {
	Intention         string
	VideoTitle        string
	ChannelName       string
	TranscriptExcerpt string
}

// DegradedPromptVars holds variables for the simplified retry prompt.
type DegradedPromptVars struct {
	Intention         string
	TranscriptExcerpt string
}

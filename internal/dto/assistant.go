package dto

// AssistantMessageRequest is one counselor turn.
type AssistantMessageRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Message   string `json:"message" validate:"required"`
}

// AssistantReply is the bot response for one turn.
type AssistantReply struct {
	Text string `json:"text"`
	// Kind distinguishes replies for the client: "details", "comment_saved",
	// "needs_selection", "no_match".
	Kind string `json:"kind"`
	// RecordKey is set when a student is (or remains) selected.
	RecordKey string `json:"record_key,omitempty"`
}

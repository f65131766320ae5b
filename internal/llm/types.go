package llm

// Message is one turn of a chat-completions exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams tunes a single chat-completions call. The zero value uses the
// client's default model with no token cap.
type ChatParams struct {
	Model       string // overrides the client default when set
	MaxTokens   int    // 0 leaves the server's limit in place
	Temperature float32
}

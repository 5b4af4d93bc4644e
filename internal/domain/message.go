package domain

// Message roles understood by the prompt augmentation layer.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry of a chat conversation. The retrieval core only
// reads roles and content; transmission to the model is the caller's job.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

package types

// ChatRole mirrors the roles the generative backend understands.
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// ChatMessage is one turn of the travel assistant conversation.
type ChatMessage struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

type AssistantRequest struct {
	History []ChatMessage `json:"history"`
	Message string        `json:"message"`
}

type AssistantResponse struct {
	Reply string `json:"reply"`
	Model string `json:"model,omitempty"`
}

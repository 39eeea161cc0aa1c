package types

import "time"

// LlmInteraction records one successful model call for auditing.
type LlmInteraction struct {
	ID           string    `json:"id" bson:"_id"`
	UserEmail    string    `json:"user_email" bson:"user_email"`
	Prompt       string    `json:"prompt" bson:"prompt"`
	ResponseText string    `json:"response_text" bson:"response_text"`
	ModelUsed    string    `json:"model_used" bson:"model_used"`
	KeyIndex     int       `json:"key_index" bson:"key_index"`
	LatencyMs    int64     `json:"latency_ms" bson:"latency_ms"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

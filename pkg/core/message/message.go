// Package message 定义发送给 LLM 的消息与用量类型
package message

// Role 消息角色
type Role string

const (
	// RoleSystem 系统指令，Gemini 作为 SystemInstruction 发送
	RoleSystem Role = "system"
	// RoleUser 用户提示词
	RoleUser Role = "user"
)

// Message 一条对话消息
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage 创建用户消息
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// TokenUsage 单次调用的 Token 用量，提供商未返回时为零值
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

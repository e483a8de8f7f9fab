package prompts

import (
	"strings"

	"github.com/zenarog/zenarog-engine/pkg/llm"
	"github.com/zenarog/zenarog-engine/pkg/models"
)

// MedicalDisclaimer closes every assistant answer.
const MedicalDisclaimer = "This is AI-generated medical information only. Please consult a qualified healthcare professional for proper diagnosis and treatment."

// MedicalAssistantSystem restricts the chat assistant to health topics.
const MedicalAssistantSystem = `You are a helpful medical assistant. Your role is to provide health and medical information only.

RULES:
1. Only answer health, medical, and wellness-related questions
2. If asked non-medical questions, politely decline and redirect to medical topics
3. Always include a disclaimer at the end: "` + MedicalDisclaimer + `"
4. Respond in the SAME LANGUAGE the user uses (Hindi, English, Tamil, Telugu, Bengali, Marathi, Malayalam, Kannada, Gujarati, etc.)
5. Keep responses clear, concise, and easy to understand
6. Do not provide specific dosage recommendations - always tell users to consult a doctor
7. For emergency symptoms, immediately advise seeking immediate medical attention
8. Do not pretend to be a doctor - always clarify you are an AI assistant

Your responses should be helpful, accurate, and prioritize user safety above all.`

// BuildMedicalConversation returns the system prompt, the prior turns and the
// new user message, in that order. Turns with other roles or no content are dropped.
func BuildMedicalConversation(history []models.ChatMessage, message string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: MedicalAssistantSystem})

	for _, turn := range history {
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		switch turn.Role {
		case models.ChatRoleUser:
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: turn.Content})
		case models.ChatRoleAssistant:
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: turn.Content})
		}
	}

	return append(messages, llm.Message{Role: llm.RoleUser, Content: message})
}

// Package chat keeps the in-memory conversation shown in the companion.
package chat

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
)

// Role is the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SystemPrompt seeds every thread.
const SystemPrompt = `You are an AI assistant built into an online code editor.
Your main job is helping users with their code, but you can also hold a casual conversation.

Guidelines:
1. Coding help: look at the user's code, then debug, optimize, or explain it. Be specific about their code.
2. Casual messages: reply naturally and politely. Leave the code out unless the user brings it up.
3. Ambiguous messages: ask for clarification and guide the user toward what they need.
4. Always be helpful, friendly, and professional. Do not guess intent; ask when unsure.

You always see the user's latest code. Use it only when it is relevant to their message.`

// Message is one turn in a thread.
type Message struct {
	Role    Role
	Content string
}

// Thread is an append-only, ordered conversation. It is safe for concurrent use.
type Thread struct {
	mu       sync.RWMutex
	messages []Message
}

// NewThread returns a thread seeded with the system prompt.
func NewThread() *Thread {
	return &Thread{messages: []Message{{Role: RoleSystem, Content: SystemPrompt}}}
}

// AddUser appends a user turn. When code is present it is attached ahead of the
// message so the assistant sees the editor contents.
func (t *Thread) AddUser(message, code string) Message {
	content := message
	if strings.TrimSpace(code) != "" {
		content = fmt.Sprintf("User's code:\n%s\n\nUser's message:\n%s", code, message)
	}
	m := Message{Role: RoleUser, Content: strings.TrimSpace(content)}
	t.append(m)
	return m
}

// AddAssistant appends an assistant turn.
func (t *Thread) AddAssistant(content string) Message {
	m := Message{Role: RoleAssistant, Content: content}
	t.append(m)
	return m
}

func (t *Thread) append(m Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, m)
}

// Messages returns a copy of the thread in order.
func (t *Thread) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.messages)
}

// All yields a snapshot of the thread in order.
func (t *Thread) All() iter.Seq[Message] {
	return slices.Values(t.Messages())
}

// Len returns the number of messages, including the system prompt.
func (t *Thread) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

package chat

import (
	"sync"
	"testing"
)

func TestNewThread_SeededWithSystemPrompt(t *testing.T) {
	th := NewThread()

	msgs := th.Messages()
	if len(msgs) != 1 {
		t.Fatalf("len = %d, want 1", len(msgs))
	}
	if msgs[0].Role != RoleSystem || msgs[0].Content != SystemPrompt {
		t.Errorf("first message = %+v, want system prompt", msgs[0])
	}
}

func TestThread_AddUser(t *testing.T) {
	tests := []struct {
		name    string
		message string
		code    string
		want    string
	}{
		{"without code", "hello", "", "hello"},
		{"whitespace code ignored", "hello", "  \n", "hello"},
		{"with code", "why does this fail?", "print(x)", "User's code:\nprint(x)\n\nUser's message:\nwhy does this fail?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := NewThread()
			got := th.AddUser(tt.message, tt.code)
			if got.Role != RoleUser || got.Content != tt.want {
				t.Errorf("AddUser() = %+v, want content %q", got, tt.want)
			}
		})
	}
}

func TestThread_OrderAndCopy(t *testing.T) {
	th := NewThread()
	th.AddUser("q1", "")
	th.AddAssistant("a1")
	th.AddUser("q2", "")

	var roles []Role
	for m := range th.All() {
		roles = append(roles, m.Role)
	}
	want := []Role{RoleSystem, RoleUser, RoleAssistant, RoleUser}
	if len(roles) != len(want) {
		t.Fatalf("roles = %v, want %v", roles, want)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Errorf("roles[%d] = %s, want %s", i, roles[i], want[i])
		}
	}

	msgs := th.Messages()
	msgs[1].Content = "mutated"
	if th.Messages()[1].Content != "q1" {
		t.Error("Messages() returned shared storage")
	}
}

func TestThread_ConcurrentAppend(t *testing.T) {
	th := NewThread()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			th.AddAssistant("x")
		}()
	}
	wg.Wait()

	if th.Len() != 51 {
		t.Errorf("Len() = %d, want 51", th.Len())
	}
}

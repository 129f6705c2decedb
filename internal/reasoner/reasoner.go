package reasoner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Reasoner is the single LLM call abstraction the pipeline depends on:
// prompt messages in, one assistant message (text and/or tool calls) out.
// Implementations are opaque, non-deterministic and may be rate limited;
// callers must treat every Invoke as a cancellable, timeout-bound
// suspension point.
type Reasoner interface {
	Invoke(ctx context.Context, messages []*schema.Message) (*schema.Message, error)
}

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond
)

// ChatReasoner wraps an eino chat model with retry and exponential backoff
// for transient failures. Non-transient failures surface immediately.
type ChatReasoner struct {
	model       model.BaseChatModel
	maxAttempts int
	baseDelay   time.Duration
}

func NewChatReasoner(m model.BaseChatModel) *ChatReasoner {
	return &ChatReasoner{
		model:       m,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}
}

// NewToolChatReasoner binds tools to a tool-calling model before wrapping it.
func NewToolChatReasoner(m model.ToolCallingChatModel, tools []*schema.ToolInfo) (*ChatReasoner, error) {
	if len(tools) > 0 {
		bound, err := m.WithTools(tools)
		if err != nil {
			return nil, fmt.Errorf("bind tools: %w", err)
		}
		return NewChatReasoner(bound), nil
	}
	return NewChatReasoner(m), nil
}

func (r *ChatReasoner) Invoke(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := r.baseDelay << (attempt - 1)
			log.Printf("[reasoner] transient failure, retrying in %s: %v", delay, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		msg, err := r.model.Generate(ctx, messages)
		if err == nil {
			return msg, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, &TransientError{Err: fmt.Errorf("retries exhausted after %d attempts: %w", r.maxAttempts, lastErr)}
}

// AgentReasoner adapts a tool-running agent (eino react agent) to Reasoner,
// with the same retry policy as ChatReasoner.
type AgentReasoner struct {
	generate    func(ctx context.Context, input []*schema.Message) (*schema.Message, error)
	maxAttempts int
	baseDelay   time.Duration
}

func NewAgentReasoner(generate func(ctx context.Context, input []*schema.Message) (*schema.Message, error)) *AgentReasoner {
	return &AgentReasoner{
		generate:    generate,
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}
}

func (r *AgentReasoner) Invoke(ctx context.Context, messages []*schema.Message) (*schema.Message, error) {
	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := r.baseDelay << (attempt - 1)
			log.Printf("[reasoner] transient agent failure, retrying in %s: %v", delay, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		msg, err := r.generate(ctx, messages)
		if err == nil {
			return msg, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !IsTransient(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, &TransientError{Err: fmt.Errorf("retries exhausted after %d attempts: %w", r.maxAttempts, lastErr)}
}

package prompt

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Script is a deterministic Driver for tests: each call pops the next
// queued reply and records the prompt it answered.
type Script struct {
	mu      sync.Mutex
	replies []any
	Asked   []string
	Infos   []string
}

// NewScript queues replies in prompt order: string for Input, bool for
// Confirm, int for Select, []int for MultiSelect.
func NewScript(replies ...any) *Script {
	return &Script{replies: replies}
}

func (s *Script) next(message string) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Asked = append(s.Asked, message)
	if len(s.replies) == 0 {
		return nil, fmt.Errorf("prompt: script exhausted at %q", message)
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func (s *Script) Input(_ context.Context, cfg InputConfig) (string, error) {
	reply, err := s.next(cfg.Message)
	if err != nil {
		return "", err
	}
	v, ok := reply.(string)
	if !ok {
		return "", fmt.Errorf("prompt: script reply for %q is %T, want string", cfg.Message, reply)
	}
	if cfg.Validator != nil {
		if err := cfg.Validator(v); err != nil {
			return "", err
		}
	}
	return v, nil
}

func (s *Script) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	reply, err := s.next(cfg.Message)
	if err != nil {
		return false, err
	}
	v, ok := reply.(bool)
	if !ok {
		return false, fmt.Errorf("prompt: script reply for %q is %T, want bool", cfg.Message, reply)
	}
	return v, nil
}

func (s *Script) Select(_ context.Context, cfg SelectConfig) (int, error) {
	reply, err := s.next(cfg.Message)
	if err != nil {
		return 0, err
	}
	switch v := reply.(type) {
	case int:
		return v, nil
	case string:
		if i := indexOf(cfg.Options, v); i >= 0 {
			return i, nil
		}
		return 0, fmt.Errorf("prompt: option %q not in [%s]", v, strings.Join(cfg.Options, ", "))
	default:
		return 0, fmt.Errorf("prompt: script reply for %q is %T, want int or string", cfg.Message, reply)
	}
}

func (s *Script) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	reply, err := s.next(cfg.Message)
	if err != nil {
		return nil, err
	}
	v, ok := reply.([]int)
	if !ok {
		return nil, fmt.Errorf("prompt: script reply for %q is %T, want []int", cfg.Message, reply)
	}
	return v, nil
}

func (s *Script) Info(_ context.Context, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Infos = append(s.Infos, msg)
	return nil
}

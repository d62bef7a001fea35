// Package redisstream appends JSON messages to a Redis stream and reads them
// back in order. Stream IDs double as resume cursors for consumers.
package redisstream

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const payloadField = "payload"

// Stream is a capped Redis stream. A nil Rdb makes every call a no-op.
type Stream struct {
	Rdb    *redis.Client
	Key    string
	MaxLen int64
}

// Message is one decoded stream entry.
type Message struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Append marshals v and adds it to the stream, returning the entry ID.
func (s *Stream) Append(ctx context.Context, msgType string, v interface{}) (string, error) {
	if s == nil || s.Rdb == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	args := &redis.XAddArgs{
		Stream: s.Key,
		Values: map[string]interface{}{"type": msgType, payloadField: string(b)},
	}
	if s.MaxLen > 0 {
		args.MaxLen = s.MaxLen
		args.Approx = true
	}
	return s.Rdb.XAdd(ctx, args).Result()
}

// Read returns up to count entries after the given ID ("0" or "" for the
// beginning). block > 0 waits for new entries; zero returns immediately.
func (s *Stream) Read(ctx context.Context, after string, count int64, block time.Duration) ([]Message, error) {
	if s == nil || s.Rdb == nil {
		return nil, nil
	}
	if after == "" {
		after = "0"
	}
	if block <= 0 {
		block = -1
	}
	res, err := s.Rdb.XRead(ctx, &redis.XReadArgs{
		Streams: []string{s.Key, after},
		Count:   count,
		Block:   block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Message
	for _, st := range res {
		for _, m := range st.Messages {
			out = append(out, decode(m))
		}
	}
	return out, nil
}

// Latest returns up to count most recent entries, newest first.
func (s *Stream) Latest(ctx context.Context, count int64) ([]Message, error) {
	if s == nil || s.Rdb == nil {
		return nil, nil
	}
	res, err := s.Rdb.XRevRangeN(ctx, s.Key, "+", "-", count).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(res))
	for _, m := range res {
		out = append(out, decode(m))
	}
	return out, nil
}

func decode(m redis.XMessage) Message {
	msg := Message{ID: m.ID}
	if t, ok := m.Values["type"].(string); ok {
		msg.Type = t
	}
	if p, ok := m.Values[payloadField].(string); ok {
		msg.Payload = json.RawMessage(p)
	}
	return msg
}

package bus

import (
	"context"
	"sync"

	"github.com/yungbote/neurobridge-personalization/internal/realtime"
)

// Recorder keeps published messages in memory. Tests use it to assert notifications.
type Recorder struct {
	mu   sync.Mutex
	msgs []realtime.Message
}

func (r *Recorder) Publish(_ context.Context, msg realtime.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *Recorder) StartForwarder(context.Context, func(realtime.Message)) error { return nil }

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Messages() []realtime.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]realtime.Message, len(r.msgs))
	copy(out, r.msgs)
	return out
}

package perflog

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// BufferOption customises NewBuffer.
type BufferOption func(*Buffer)

// WithSupportedTypes restricts the categories a Buffer accepts. Observing
// any other category fails with ErrUnsupportedEntryType and publishing it is
// a no-op.
func WithSupportedTypes(types ...EntryType) BufferOption {
	return func(b *Buffer) {
		b.supported = make(map[EntryType]bool, len(types))
		for _, t := range types {
			b.supported[t] = true
		}
	}
}

// WithBufferLimit caps how many entries per category are retained for
// buffered subscribers. Entries past the cap are still delivered to live
// subscribers but not retained, like the browser's performance buffer. Zero
// means no cap.
func WithBufferLimit(n int) BufferOption {
	return func(b *Buffer) {
		if n > 0 {
			b.limit = n
		}
	}
}

// Buffer is an in-memory, replayable Source. Entries are published with
// Publish and delivered synchronously to subscribers of their category.
//
// Publish and Observe are serialised, so a buffered subscriber sees every
// entry exactly once regardless of when it registers. Callbacks must not call
// Publish or Observe on the same Buffer.
type Buffer struct {
	dispatch sync.Mutex // held while delivering

	mu        sync.Mutex
	supported map[EntryType]bool
	limit     int
	entries   map[EntryType][]Entry
	dropped   map[EntryType]int
	subs      map[EntryType][]*bufferSubscription
}

// NewBuffer returns an empty Buffer supporting every category in EntryTypes
// unless configured otherwise.
func NewBuffer(opts ...BufferOption) *Buffer {
	b := &Buffer{
		entries: make(map[EntryType][]Entry),
		dropped: make(map[EntryType]int),
		subs:    make(map[EntryType][]*bufferSubscription),
	}
	WithSupportedTypes(EntryTypes...)(b)
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// SupportedEntryTypes lists the categories b accepts, in EntryTypes order.
func (b *Buffer) SupportedEntryTypes() []EntryType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]EntryType, 0, len(b.supported))
	for _, t := range EntryTypes {
		if b.supported[t] {
			out = append(out, t)
		}
	}
	return out
}

// Observe implements Source.
func (b *Buffer) Observe(opts ObserveOptions, fn BatchFunc) (Subscription, error) {
	if fn == nil {
		return nil, fmt.Errorf("perflog: observe %s: nil callback", opts.Type)
	}
	b.dispatch.Lock()
	defer b.dispatch.Unlock()

	b.mu.Lock()
	if !b.supported[opts.Type] {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w %q", ErrUnsupportedEntryType, opts.Type)
	}
	sub := &bufferSubscription{
		id:     uuid.NewString(),
		typ:    opts.Type,
		fn:     fn,
		buffer: b,
	}
	var replay Batch
	if opts.Buffered {
		replay = slices.Clone(b.entries[opts.Type])
	}
	b.subs[opts.Type] = append(b.subs[opts.Type], sub)
	b.mu.Unlock()

	if len(replay) > 0 {
		sub.deliver(replay)
	}
	return sub, nil
}

// Publish records entries and delivers them to current subscribers. Entries
// are grouped per category, preserving their relative order, and each
// subscriber receives one batch per call. Entries of unsupported categories
// are ignored.
func (b *Buffer) Publish(entries ...Entry) {
	if len(entries) == 0 {
		return
	}
	b.dispatch.Lock()
	defer b.dispatch.Unlock()

	type delivery struct {
		subs  []*bufferSubscription
		batch Batch
	}
	var (
		order []EntryType
		byTyp = make(map[EntryType]Batch)
	)
	b.mu.Lock()
	for _, e := range entries {
		if e == nil {
			continue
		}
		typ := EntryTypeOf(e)
		if !b.supported[typ] {
			continue
		}
		e = normalize(e)
		if _, seen := byTyp[typ]; !seen {
			order = append(order, typ)
		}
		byTyp[typ] = append(byTyp[typ], e)
		if b.limit > 0 && len(b.entries[typ]) >= b.limit {
			b.dropped[typ]++
			continue
		}
		b.entries[typ] = append(b.entries[typ], e)
	}
	deliveries := make([]delivery, 0, len(order))
	for _, typ := range order {
		deliveries = append(deliveries, delivery{subs: slices.Clone(b.subs[typ]), batch: byTyp[typ]})
	}
	b.mu.Unlock()

	for _, d := range deliveries {
		for _, sub := range d.subs {
			sub.deliver(d.batch)
		}
	}
}

// Entries returns the retained entries of typ.
func (b *Buffer) Entries(typ EntryType) Batch {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.entries[typ])
}

// Dropped reports how many entries of typ were not retained because of the
// buffer limit.
func (b *Buffer) Dropped(typ EntryType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped[typ]
}

// Subscribers reports the number of live subscriptions for typ.
func (b *Buffer) Subscribers(typ EntryType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[typ])
}

func (b *Buffer) remove(sub *bufferSubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[sub.typ] = slices.DeleteFunc(b.subs[sub.typ], func(s *bufferSubscription) bool {
		return s == sub
	})
}

type bufferSubscription struct {
	id     string
	typ    EntryType
	fn     BatchFunc
	buffer *Buffer
	closed atomic.Bool
}

func (s *bufferSubscription) ID() string      { return s.id }
func (s *bufferSubscription) Type() EntryType { return s.typ }

func (s *bufferSubscription) Disconnect() {
	if s.closed.Swap(true) {
		return
	}
	s.buffer.remove(s)
}

func (s *bufferSubscription) deliver(batch Batch) {
	if s.closed.Load() {
		return
	}
	s.fn(batch)
}

package peersync

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/sharedq/internal/persist"
	"github.com/rzbill/sharedq/internal/sharedqueue"
	"github.com/rzbill/sharedq/internal/storage/memstore"
	"github.com/rzbill/sharedq/internal/wire"
)

type recordingLink struct {
	mu     sync.Mutex
	frames [][]byte
	ns     []string
}

func (l *recordingLink) Broadcast(_ context.Context, namespace string, frame []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = append(l.frames, append([]byte(nil), frame...))
	l.ns = append(l.ns, namespace)
	return nil
}

func (l *recordingLink) events(t *testing.T) []wire.Event {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]wire.Event, 0, len(l.frames))
	for _, f := range l.frames {
		ev, err := wire.Decode(f)
		require.NoError(t, err)
		out = append(out, ev)
	}
	return out
}

func newQueue(t *testing.T) *sharedqueue.Queue {
	t.Helper()
	q, err := sharedqueue.Open(context.Background(), persist.New(memstore.New(), "lobby", 1), nil)
	require.NoError(t, err)
	return q
}

func TestObserveAssignsAndBroadcastsOnce(t *testing.T) {
	link := &recordingLink{}
	r := New(newQueue(t), link, nil)
	ctx := context.Background()

	n, err := r.Observe(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = r.Observe(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	evs := link.events(t)
	require.Len(t, evs, 1)
	assert.Equal(t, wire.KindAdd, evs[0].Kind)
	assert.Equal(t, "A1", evs[0].UID)
	assert.Equal(t, 1, evs[0].Number)
	assert.NotEmpty(t, evs[0].Timestamp)
	assert.Equal(t, []string{"lobby"}, link.ns)
}

func TestConcurrentObserveBroadcastsOnce(t *testing.T) {
	link := &recordingLink{}
	r := New(newQueue(t), link, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := r.Observe(ctx, "A1")
			assert.NoError(t, err)
			assert.Equal(t, 1, n)
		}()
	}
	wg.Wait()
	assert.Len(t, link.events(t), 1)
}

func TestReceiveRejectsOutOfRangeNumber(t *testing.T) {
	q := newQueue(t)
	r := New(q, nil, nil)
	ctx := context.Background()

	_, applied, err := r.Receive(ctx, mustFrame(t, wire.Event{Kind: wire.KindAdd, UID: "A1", Number: math.MaxInt32}))
	assert.ErrorIs(t, err, sharedqueue.ErrNumberRange)
	assert.True(t, IsMalformed(err))
	assert.False(t, applied)
	assert.True(t, q.Empty())
	assert.Equal(t, 1, q.Counter())

	// the highest accepted number still leaves a counter that fits the wire
	_, applied, err = r.Receive(ctx, mustFrame(t, wire.Event{Kind: wire.KindAdd, UID: "A1", Number: sharedqueue.MaxNumber}))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, math.MaxInt32, q.Counter())
}

func TestPublishOnlyBroadcastsChanges(t *testing.T) {
	link := &recordingLink{}
	r := New(newQueue(t), link, nil)
	ctx := context.Background()

	add := wire.Event{Kind: wire.KindAdd, UID: "B2", Timestamp: "2024-01-01T00:00:00", Number: 4}
	changed, err := r.Publish(ctx, add)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = r.Publish(ctx, add)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = r.Publish(ctx, wire.Event{Kind: wire.KindRemove, UID: "nope"})
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = r.Publish(ctx, wire.Event{Kind: wire.KindRemove, UID: "B2"})
	require.NoError(t, err)
	assert.True(t, changed)

	evs := link.events(t)
	require.Len(t, evs, 2)
	assert.Equal(t, wire.KindAdd, evs[0].Kind)
	assert.Equal(t, wire.KindRemove, evs[1].Kind)
	assert.Equal(t, 5, r.Queue().Counter())
}

func TestReceiveAppliesIdempotently(t *testing.T) {
	q := newQueue(t)
	link := &recordingLink{}
	r := New(q, link, nil)
	ctx := context.Background()

	frame := mustFrame(t, wire.Event{Kind: wire.KindAdd, UID: "C3", Timestamp: "2024-01-01T00:00:00", Number: 2})
	ev, applied, err := r.Receive(ctx, frame)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "C3", ev.UID)

	_, applied, err = r.Receive(ctx, frame)
	require.NoError(t, err)
	assert.False(t, applied, "replayed add is a no-op")
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 3, q.Counter())

	_, applied, err = r.Receive(ctx, mustFrame(t, wire.Event{Kind: wire.KindRemove, UID: "C3"}))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, q.Empty())

	assert.Empty(t, link.events(t), "received events are not re-broadcast")
}

func TestReceiveMalformedDoesNotMutate(t *testing.T) {
	q := newQueue(t)
	r := New(q, nil, nil)
	ctx := context.Background()
	require.NoError(t, q.Add(ctx, "A1", "", 1))
	before := q.State()

	item, _, err := wire.Encode(wire.Event{Kind: wire.KindAdd, UID: "X"})
	require.NoError(t, err)
	item.RemoveFromQueue = true
	both, _ := item.MarshalBinary()

	item.AddToQueue, item.RemoveFromQueue = false, false
	neither, _ := item.MarshalBinary()

	for _, frame := range [][]byte{both, neither, both[:10]} {
		_, applied, err := r.Receive(ctx, frame)
		assert.Error(t, err)
		assert.True(t, IsMalformed(err))
		assert.False(t, applied)
	}
	assert.Equal(t, before, q.State())
}

func TestPersistFailureSurfacesAndSkipsBroadcast(t *testing.T) {
	kv := memstore.New()
	q, err := sharedqueue.Open(context.Background(), persist.New(kv, "lobby", 1), nil)
	require.NoError(t, err)
	link := &recordingLink{}
	r := New(q, link, nil)

	kv.FailCommits(1)
	_, err = r.Observe(context.Background(), "A1")
	assert.ErrorIs(t, err, sharedqueue.ErrPersistence)
	assert.Empty(t, link.events(t))
	assert.False(t, q.Exists("A1"))
}

func mustFrame(t *testing.T, ev wire.Event) []byte {
	t.Helper()
	item, _, err := wire.Encode(ev)
	require.NoError(t, err)
	b, err := item.MarshalBinary()
	require.NoError(t, err)
	return b
}

package peersync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rzbill/sharedq/internal/sharedqueue"
	"github.com/rzbill/sharedq/internal/wire"
	logpkg "github.com/rzbill/sharedq/pkg/log"
)

// Replicator applies local and remote add/remove events to one Queue and
// forwards local ones over a Link. Received events are applied but never
// re-broadcast; every node talks to every peer directly.
type Replicator struct {
	q      *sharedqueue.Queue
	link   Link
	logger logpkg.Logger
	now    func() time.Time
}

// New returns a Replicator for q. A nil link makes a standalone node.
func New(q *sharedqueue.Queue, link Link, logger logpkg.Logger) *Replicator {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &Replicator{
		q:      q,
		link:   link,
		logger: logger.WithComponent("peersync").With(logpkg.Namespace(q.Namespace())),
		now:    time.Now,
	}
}

// Queue returns the queue events are applied to.
func (r *Replicator) Queue() *sharedqueue.Queue { return r.q }

// Observe handles a uid seen by a local reader: it gets or assigns the
// permanent number and, when the uid was new, tells the peers.
func (r *Replicator) Observe(ctx context.Context, uid string) (int, error) {
	e, created, err := r.q.Assign(ctx, uid, r.now())
	if err != nil {
		return 0, err
	}
	if created {
		r.broadcast(ctx, wire.Event{Kind: wire.KindAdd, UID: uid, Timestamp: e.Timestamp, Number: e.Number})
	}
	return e.Number, nil
}

// Publish applies a local event and forwards it when it changed the queue.
// Adds use AddIfNew semantics; removing an absent uid is a no-op.
func (r *Replicator) Publish(ctx context.Context, ev wire.Event) (bool, error) {
	changed, err := r.apply(ctx, ev)
	if err != nil || !changed {
		return changed, err
	}
	r.broadcast(ctx, ev)
	return true, nil
}

// Receive decodes a frame from a peer and applies it. Malformed frames are
// logged and rejected without touching the queue.
func (r *Replicator) Receive(ctx context.Context, frame []byte) (wire.Event, bool, error) {
	ev, err := wire.Decode(frame)
	if err != nil {
		r.logger.Warn("discarding peer frame", logpkg.Err(err), logpkg.Int("bytes", len(frame)))
		return wire.Event{}, false, err
	}
	applied, err := r.apply(ctx, ev)
	if err != nil {
		if errors.Is(err, sharedqueue.ErrNumberRange) {
			r.logger.Warn("discarding peer event", logpkg.Str("uid", ev.UID), logpkg.Err(err))
		}
		return ev, false, err
	}
	r.logger.Debug("applied peer event",
		logpkg.Str("kind", ev.Kind.String()), logpkg.Str("uid", ev.UID), logpkg.Bool("applied", applied))
	return ev, applied, nil
}

func (r *Replicator) apply(ctx context.Context, ev wire.Event) (bool, error) {
	switch ev.Kind {
	case wire.KindAdd:
		return r.q.AddIfNew(ctx, ev.UID, ev.Timestamp, ev.Number)
	case wire.KindRemove:
		return r.q.RemoveByUID(ctx, ev.UID)
	default:
		return false, fmt.Errorf("%w: kind %s", wire.ErrMalformedMessage, ev.Kind)
	}
}

// broadcast encodes ev and hands it to the link. Failures are logged; the
// local mutation already committed and peers converge on later events.
func (r *Replicator) broadcast(ctx context.Context, ev wire.Event) {
	if r.link == nil {
		return
	}
	item, tr, err := wire.Encode(ev)
	if err != nil {
		r.logger.Error("cannot encode event", logpkg.Str("uid", ev.UID), logpkg.Err(err))
		return
	}
	if tr.Any() {
		r.logger.Warn("event truncated for the wire; peers may see a colliding uid",
			logpkg.Str("uid", ev.UID), logpkg.Err(tr.Err()))
	}
	frame, err := item.MarshalBinary()
	if err != nil {
		r.logger.Error("cannot marshal event", logpkg.Err(err))
		return
	}
	if err := r.link.Broadcast(ctx, r.q.Namespace(), frame); err != nil {
		r.logger.Warn("broadcast failed", logpkg.Str("kind", ev.Kind.String()), logpkg.Str("uid", ev.UID), logpkg.Err(err))
	}
}

// IsMalformed reports whether err came from a frame or event that failed to
// decode or carries a number the queue cannot hold.
func IsMalformed(err error) bool {
	return errors.Is(err, wire.ErrMalformedMessage) || errors.Is(err, wire.ErrShortFrame) ||
		errors.Is(err, wire.ErrNumberRange) || errors.Is(err, sharedqueue.ErrNumberRange)
}

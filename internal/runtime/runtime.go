package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	cfgpkg "github.com/rzbill/sharedq/internal/config"
	"github.com/rzbill/sharedq/internal/namespace"
	"github.com/rzbill/sharedq/internal/peersync"
	"github.com/rzbill/sharedq/internal/persist"
	"github.com/rzbill/sharedq/internal/sharedqueue"
	"github.com/rzbill/sharedq/internal/storage"
	"github.com/rzbill/sharedq/internal/storage/memstore"
	pebblestore "github.com/rzbill/sharedq/internal/storage/pebble"
	sqlitestore "github.com/rzbill/sharedq/internal/storage/sqlite"
	logpkg "github.com/rzbill/sharedq/pkg/log"
)

// ErrLocked is returned by Open when another process owns the data directory.
var ErrLocked = errors.New("runtime: data directory is locked by another process")

var nodeIDKey = []byte("node/id")

// Options for building the Runtime.
type Options struct {
	DataDir string
	Config  cfgpkg.Config
	Logger  logpkg.Logger
	// Link overrides the peer link built from Config.Peers. Optional.
	Link peersync.Link
}

// Runtime wires storage, config and one Queue per namespace into a node.
type Runtime struct {
	kv     storage.KV
	lock   *flock.Flock
	config cfgpkg.Config
	logger logpkg.Logger
	policy *namespace.Policy
	nodeID string
	link   peersync.Link

	mu     sync.Mutex
	queues map[string]*peersync.Replicator
}

// Open locks the data directory, opens the configured backend and returns a
// Runtime. The memory backend needs no data directory and takes no lock.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}

	if cfg.Storage.Backend == cfgpkg.BackendMemory {
		return newRuntime(memstore.New(), nil, cfg, logger, opts.Link)
	}

	if opts.DataDir == "" {
		return nil, errors.New("runtime: DataDir is required")
	}
	if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	lock := flock.New(cfgpkg.LockPath(opts.DataDir))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, opts.DataDir)
	}

	kv, err := openKV(opts.DataDir, cfg, logger)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	rt, err := newRuntime(kv, lock, cfg, logger, opts.Link)
	if err != nil {
		_ = kv.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return rt, nil
}

// NewWithKV builds a Runtime over an already-open store without taking a
// data directory lock. Close closes kv.
func NewWithKV(kv storage.KV, cfg cfgpkg.Config, logger logpkg.Logger, link peersync.Link) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return newRuntime(kv, nil, cfg, logger, link)
}

func openKV(dataDir string, cfg cfgpkg.Config, logger logpkg.Logger) (storage.KV, error) {
	path := cfgpkg.StorePath(dataDir, cfg.Storage.Backend)
	switch cfg.Storage.Backend {
	case cfgpkg.BackendSQLite:
		return sqlitestore.Open(path)
	default:
		mode, err := pebblestore.ParseFsyncMode(cfg.Storage.Fsync)
		if err != nil {
			return nil, err
		}
		storeLog := logger.WithComponent("pebble")
		return pebblestore.Open(pebblestore.Options{
			DataDir:       path,
			Fsync:         mode,
			FsyncInterval: time.Duration(cfg.Storage.FsyncIntervalMs) * time.Millisecond,
			Logger:        pebbleLogger{storeLog},
			Metrics:       slowCommitLogger{logger: storeLog, threshold: 250 * time.Millisecond},
		})
	}
}

func newRuntime(kv storage.KV, lock *flock.Flock, cfg cfgpkg.Config, logger logpkg.Logger, link peersync.Link) (*Runtime, error) {
	policy, err := namespace.NewPolicy(cfg.NamespaceNameRegex, cfg.AllowedNamespaces, cfg.MaxNamespaces)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{
		kv:     kv,
		lock:   lock,
		config: cfg,
		logger: logger.WithComponent("runtime"),
		policy: policy,
		queues: make(map[string]*peersync.Replicator),
	}
	if rt.nodeID, err = rt.loadNodeID(cfg.NodeID); err != nil {
		return nil, err
	}
	rt.link = link
	if rt.link == nil && len(cfg.Peers.URLs) > 0 {
		rt.link = peersync.NewHTTPLink(peersync.HTTPLinkOptions{
			Peers:   cfg.Peers.URLs,
			NodeID:  rt.nodeID,
			Timeout: cfg.Peers.Timeout(),
		})
	}
	if _, err := rt.EnsureNamespace(context.Background(), cfg.DefaultNamespaceName); err != nil {
		return nil, fmt.Errorf("default namespace: %w", err)
	}
	rt.logger.Info("runtime open",
		logpkg.Str("node_id", rt.nodeID),
		logpkg.Str("backend", cfg.Storage.Backend),
		logpkg.Int("peers", len(cfg.Peers.URLs)))
	return rt, nil
}

// loadNodeID returns the configured id, else the persisted one, else a fresh
// uuid which is persisted for the next start.
func (r *Runtime) loadNodeID(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	b, err := r.kv.Get(nodeIDKey)
	if err == nil && len(b) > 0 {
		return string(b), nil
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("read node id: %w", err)
	}
	id := uuid.NewString()
	if err := r.kv.Commit(context.Background(), []storage.Mutation{storage.Put(nodeIDKey, []byte(id))}); err != nil {
		return "", fmt.Errorf("persist node id: %w", err)
	}
	return id, nil
}

// Close closes the store and releases the data directory.
func (r *Runtime) Close() error {
	var errs []error
	if r.kv != nil {
		errs = append(errs, r.kv.Close())
	}
	if r.lock != nil {
		errs = append(errs, r.lock.Unlock())
	}
	return errors.Join(errs...)
}

// CheckHealth verifies the store answers reads.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.kv == nil {
		return errors.New("store not open")
	}
	if _, err := r.kv.Get(nodeIDKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return nil
}

// EnsureNamespace creates a namespace record if absent.
func (r *Runtime) EnsureNamespace(ctx context.Context, name string) (namespace.Meta, error) {
	return namespace.EnsureNamespace(ctx, r.kv, r.policy, name, r.config.StartNumber)
}

// Namespaces lists known namespaces in name order.
func (r *Runtime) Namespaces() ([]namespace.Meta, error) {
	metas, err := namespace.List(r.kv)
	if err != nil {
		return nil, err
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })
	return metas, nil
}

// ResolveNamespace maps "" to the default namespace.
func (r *Runtime) ResolveNamespace(ns string) string {
	if ns == "" {
		return r.config.DefaultNamespaceName
	}
	return ns
}

// Replicator returns the namespace's replicator, opening its queue on first
// use. Every caller gets the same instance, which owns the namespace.
func (r *Runtime) Replicator(ctx context.Context, ns string) (*peersync.Replicator, error) {
	ns = r.ResolveNamespace(ns)

	r.mu.Lock()
	defer r.mu.Unlock()
	if rep, ok := r.queues[ns]; ok {
		return rep, nil
	}
	meta, err := r.EnsureNamespace(ctx, ns)
	if err != nil {
		return nil, err
	}
	q, err := sharedqueue.Open(ctx, persist.New(r.kv, ns, meta.StartNumber), r.logger)
	if err != nil {
		return nil, err
	}
	rep := peersync.New(q, r.link, r.logger)
	r.queues[ns] = rep
	return rep, nil
}

// OpenQueue returns the namespace's queue.
func (r *Runtime) OpenQueue(ctx context.Context, ns string) (*sharedqueue.Queue, error) {
	rep, err := r.Replicator(ctx, ns)
	if err != nil {
		return nil, err
	}
	return rep.Queue(), nil
}

// NodeID returns this node's id as sent to peers.
func (r *Runtime) NodeID() string { return r.nodeID }

// KV exposes the underlying store (internal use only).
func (r *Runtime) KV() storage.KV { return r.kv }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

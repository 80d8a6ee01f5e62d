// Package persistence contains the default [domain.Persistence]
// implementation: whole-file JSON load and save with optional pretty
// printing, backup copies and debounced writes.
package persistence

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/flatdb/flatdb/domain"
	"github.com/flatdb/flatdb/internal/adapter/deserializer"
	"github.com/flatdb/flatdb/internal/adapter/serializer"
	"github.com/flatdb/flatdb/internal/adapter/storage"
)

// backupSuffix marks the copy taken before each overwrite.
const backupSuffix = "~"

// Persistence implements domain.Persistence. There is no persistence engine
// beyond serializing the whole snapshot and overwriting the file.
type Persistence struct {
	filename     string
	inMemoryOnly bool
	backup       bool
	debounce     time.Duration
	storage      domain.Storage
	serializer   domain.Serializer
	deserializer domain.Deserializer

	// mu guards the debounce timer state, which is touched from the
	// timer goroutine.
	mu      sync.Mutex
	timer   *time.Timer
	pending *domain.Snapshot
	lastErr error
}

// Options configures a new [Persistence].
type Options struct {
	Filename     string
	InMemoryOnly bool
	Backup       bool
	Debounce     time.Duration
	Indent       string
	FileMode     os.FileMode
	DirMode      os.FileMode
	Storage      domain.Storage
	Serializer   domain.Serializer
	Deserializer domain.Deserializer
}

// Option configures persistence behavior through the functional options
// pattern.
type Option func(*Options)

// WithFilename sets the path of the JSON datafile.
func WithFilename(f string) Option {
	return func(o *Options) { o.Filename = f }
}

// WithInMemoryOnly disables file persistence entirely.
func WithInMemoryOnly(i bool) Option {
	return func(o *Options) { o.InMemoryOnly = i }
}

// WithBackup enables copying the datafile to a ~-suffixed sibling before each
// overwrite.
func WithBackup(b bool) Option {
	return func(o *Options) { o.Backup = b }
}

// WithDebounce coalesces rapid saves into one physical write at most every d.
func WithDebounce(d time.Duration) Option {
	return func(o *Options) { o.Debounce = d }
}

// WithIndent sets the indentation used to pretty-print the datafile.
func WithIndent(i string) Option {
	return func(o *Options) { o.Indent = i }
}

// WithFileMode sets the permissions for the datafile.
func WithFileMode(m os.FileMode) Option {
	return func(o *Options) { o.FileMode = m }
}

// WithDirMode sets the permissions for created parent directories.
func WithDirMode(m os.FileMode) Option {
	return func(o *Options) { o.DirMode = m }
}

// WithStorage sets the storage implementation for low-level file operations.
func WithStorage(s domain.Storage) Option {
	return func(o *Options) { o.Storage = s }
}

// WithSerializer sets the serializer for converting snapshots to bytes.
func WithSerializer(s domain.Serializer) Option {
	return func(o *Options) { o.Serializer = s }
}

// WithDeserializer sets the deserializer for parsing datafile bytes.
func WithDeserializer(d domain.Deserializer) Option {
	return func(o *Options) { o.Deserializer = d }
}

// NewPersistence returns a new implementation of domain.Persistence.
func NewPersistence(options ...Option) (domain.Persistence, error) {
	opts := Options{
		FileMode: storage.DefaultFileMode,
		DirMode:  storage.DefaultDirMode,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.Storage == nil {
		opts.Storage = storage.NewStorage(
			storage.WithFileMode(opts.FileMode),
			storage.WithDirMode(opts.DirMode),
		)
	}
	if opts.Serializer == nil {
		opts.Serializer = serializer.NewSerializer(serializer.WithIndent(opts.Indent))
	}
	if opts.Deserializer == nil {
		opts.Deserializer = deserializer.NewDeserializer()
	}

	if !opts.InMemoryOnly && strings.HasSuffix(opts.Filename, backupSuffix) {
		return nil, &domain.ErrDatafileName{Filename: opts.Filename}
	}

	return &Persistence{
		filename:     opts.Filename,
		inMemoryOnly: opts.InMemoryOnly || opts.Filename == "",
		backup:       opts.Backup,
		debounce:     opts.Debounce,
		storage:      opts.Storage,
		serializer:   opts.Serializer,
		deserializer: opts.Deserializer,
	}, nil
}

// Load implements domain.Persistence. A missing datafile yields an empty
// snapshot, not an error.
func (p *Persistence) Load(ctx context.Context) (*domain.Snapshot, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if p.inMemoryOnly {
		return domain.NewSnapshot(), nil
	}

	if err := p.storage.EnsureParentDirectoryExists(p.filename); err != nil {
		return nil, &domain.ErrPersistence{Op: "load", Err: err}
	}
	exists, err := p.storage.Exists(p.filename)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "load", Err: err}
	}
	if !exists {
		return domain.NewSnapshot(), nil
	}

	b, err := p.storage.ReadFile(p.filename)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "load", Err: err}
	}
	snap, err := p.deserializer.Deserialize(ctx, b)
	if err != nil {
		return nil, &domain.ErrPersistence{Op: "load", Err: err}
	}
	return snap, nil
}

// Save implements domain.Persistence. Without a debounce the snapshot is
// written immediately. With a debounce the snapshot is kept as the pending
// state and a single deferred write is scheduled; errors from a deferred
// write surface on the next Save or Flush call.
func (p *Persistence) Save(ctx context.Context, snap *domain.Snapshot) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if p.inMemoryOnly {
		return nil
	}
	if p.debounce <= 0 {
		return p.write(ctx, snap)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.lastErr
	p.lastErr = nil
	p.pending = snap
	if p.timer == nil {
		p.timer = time.AfterFunc(p.debounce, p.fire)
	}
	return err
}

// fire runs on the timer goroutine and performs the deferred write.
func (p *Persistence) fire() {
	p.mu.Lock()
	snap := p.pending
	p.pending = nil
	p.timer = nil
	p.mu.Unlock()
	if snap == nil {
		return
	}
	if err := p.write(context.Background(), snap); err != nil {
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
	}
}

// Flush implements domain.Persistence. It performs any pending debounced
// write and reports the last deferred write failure, if any.
func (p *Persistence) Flush(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if p.inMemoryOnly {
		return nil
	}

	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	snap := p.pending
	p.pending = nil
	err := p.lastErr
	p.lastErr = nil
	p.mu.Unlock()

	if err != nil {
		return err
	}
	if snap == nil {
		return nil
	}
	return p.write(ctx, snap)
}

// Drop implements domain.Persistence.
func (p *Persistence) Drop(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if p.inMemoryOnly {
		return nil
	}

	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.pending = nil
	p.lastErr = nil
	p.mu.Unlock()

	for _, name := range []string{p.filename, p.filename + backupSuffix} {
		exists, err := p.storage.Exists(name)
		if err != nil {
			return &domain.ErrPersistence{Op: "drop", Err: err}
		}
		if !exists {
			continue
		}
		if err := p.storage.Remove(name); err != nil {
			return &domain.ErrPersistence{Op: "drop", Err: err}
		}
	}
	return nil
}

func (p *Persistence) write(ctx context.Context, snap *domain.Snapshot) error {
	b, err := p.serializer.Serialize(ctx, snap)
	if err != nil {
		return &domain.ErrPersistence{Op: "save", Err: err}
	}

	if err := p.storage.EnsureParentDirectoryExists(p.filename); err != nil {
		return &domain.ErrPersistence{Op: "save", Err: err}
	}

	if p.backup {
		exists, err := p.storage.Exists(p.filename)
		if err != nil {
			return &domain.ErrPersistence{Op: "save", Err: err}
		}
		if exists {
			if err := p.storage.CopyFile(p.filename, p.filename+backupSuffix); err != nil {
				return &domain.ErrPersistence{Op: "save", Err: err}
			}
		}
	}

	if err := p.storage.WriteFileAtomic(ctx, p.filename, b); err != nil {
		return &domain.ErrPersistence{Op: "save", Err: err}
	}
	return nil
}

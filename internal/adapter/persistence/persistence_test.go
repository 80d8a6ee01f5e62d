package persistence

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flatdb/flatdb/domain"
	"github.com/stretchr/testify/suite"
)

var ctx = context.Background()

type M = domain.Document

type PersistenceTestSuite struct {
	suite.Suite
	filename string
}

func (s *PersistenceTestSuite) SetupTest() {
	s.filename = filepath.Join(s.T().TempDir(), "test.db")
}

func (s *PersistenceTestSuite) newPersistence(options ...Option) domain.Persistence {
	options = append([]Option{WithFilename(s.filename)}, options...)
	p, err := NewPersistence(options...)
	s.Require().NoError(err)
	return p
}

func (s *PersistenceTestSuite) snapshot() *domain.Snapshot {
	snap := domain.NewSnapshot()
	snap.Collections["users"] = domain.Collection{M{"name": "ana"}}
	return snap
}

// A filename carrying the backup suffix is rejected at construction.
func (s *PersistenceTestSuite) TestBackupSuffixFilenameRejected() {
	_, err := NewPersistence(WithFilename(s.filename + "~"))
	s.ErrorAs(err, new(*domain.ErrDatafileName))
}

// A missing datafile loads as an empty database.
func (s *PersistenceTestSuite) TestLoadMissingFile() {
	p := s.newPersistence()
	snap, err := p.Load(ctx)
	s.NoError(err)
	s.Require().NotNil(snap)
	s.Empty(snap.Collections)
	s.Empty(snap.Meta)
}

// Saved state loads back identically, including metadata.
func (s *PersistenceTestSuite) TestSaveAndLoad() {
	p := s.newPersistence()
	snap := s.snapshot()
	snap.Meta = M{"version": "2"}
	s.NoError(p.Save(ctx, snap))

	loaded, err := p.Load(ctx)
	s.NoError(err)
	s.Require().Len(loaded.Collections["users"], 1)
	s.Equal("ana", loaded.Collections["users"][0]["name"])
	s.Equal(M{"version": "2"}, loaded.Meta)
}

// Parent directories are created as needed.
func (s *PersistenceTestSuite) TestCreatesParentDirectories() {
	s.filename = filepath.Join(s.T().TempDir(), "deep", "nested", "test.db")
	p := s.newPersistence()
	s.NoError(p.Save(ctx, s.snapshot()))
	_, err := os.Stat(s.filename)
	s.NoError(err)
}

// Without indentation the datafile is compact JSON.
func (s *PersistenceTestSuite) TestCompactOutput() {
	p := s.newPersistence()
	s.NoError(p.Save(ctx, s.snapshot()))
	b, err := os.ReadFile(s.filename)
	s.Require().NoError(err)
	s.False(strings.Contains(string(b), "\n  "))
}

// With indentation the datafile is pretty-printed.
func (s *PersistenceTestSuite) TestIndentedOutput() {
	p := s.newPersistence(WithIndent("  "))
	s.NoError(p.Save(ctx, s.snapshot()))
	b, err := os.ReadFile(s.filename)
	s.Require().NoError(err)
	s.True(strings.Contains(string(b), "\n  "))
}

// With backups enabled, each overwrite first copies the previous file to a
// ~-suffixed sibling.
func (s *PersistenceTestSuite) TestBackup() {
	p := s.newPersistence(WithBackup(true))

	first := s.snapshot()
	s.NoError(p.Save(ctx, first))
	// first save has nothing to back up
	_, err := os.Stat(s.filename + "~")
	s.True(os.IsNotExist(err))

	second := domain.NewSnapshot()
	second.Collections["users"] = domain.Collection{M{"name": "bruno"}}
	s.NoError(p.Save(ctx, second))

	backup, err := os.ReadFile(s.filename + "~")
	s.Require().NoError(err)
	s.Contains(string(backup), "ana")
	current, err := os.ReadFile(s.filename)
	s.Require().NoError(err)
	s.Contains(string(current), "bruno")
}

// No temporary sibling survives a successful write.
func (s *PersistenceTestSuite) TestNoTempFileLeftBehind() {
	p := s.newPersistence()
	s.NoError(p.Save(ctx, s.snapshot()))
	_, err := os.Stat(s.filename + ".tmp")
	s.True(os.IsNotExist(err))
}

// With a debounce, saves coalesce and Flush forces the pending write.
func (s *PersistenceTestSuite) TestDebounceFlush() {
	p := s.newPersistence(WithDebounce(time.Minute))

	s.NoError(p.Save(ctx, s.snapshot()))
	_, err := os.Stat(s.filename)
	s.True(os.IsNotExist(err))

	second := domain.NewSnapshot()
	second.Collections["users"] = domain.Collection{M{"name": "bruno"}}
	s.NoError(p.Save(ctx, second))

	s.NoError(p.Flush(ctx))
	b, err := os.ReadFile(s.filename)
	s.Require().NoError(err)
	s.Contains(string(b), "bruno")
	s.NotContains(string(b), "ana")
}

// The debounce timer performs the deferred write on its own.
func (s *PersistenceTestSuite) TestDebounceTimerFires() {
	p := s.newPersistence(WithDebounce(10 * time.Millisecond))
	s.NoError(p.Save(ctx, s.snapshot()))

	s.Eventually(func() bool {
		_, err := os.Stat(s.filename)
		return err == nil
	}, time.Second, 5*time.Millisecond)
}

// Flush with nothing pending is a no-op.
func (s *PersistenceTestSuite) TestFlushIdle() {
	p := s.newPersistence(WithDebounce(time.Minute))
	s.NoError(p.Flush(ctx))
	_, err := os.Stat(s.filename)
	s.True(os.IsNotExist(err))
}

// In-memory mode never touches the filesystem.
func (s *PersistenceTestSuite) TestInMemoryOnly() {
	p := s.newPersistence(WithInMemoryOnly(true))
	s.NoError(p.Save(ctx, s.snapshot()))
	s.NoError(p.Flush(ctx))
	_, err := os.Stat(s.filename)
	s.True(os.IsNotExist(err))

	snap, err := p.Load(ctx)
	s.NoError(err)
	s.Empty(snap.Collections)
}

// An empty filename means in-memory mode.
func (s *PersistenceTestSuite) TestEmptyFilenameIsInMemory() {
	p, err := NewPersistence()
	s.Require().NoError(err)
	s.NoError(p.Save(ctx, s.snapshot()))
	snap, err := p.Load(ctx)
	s.NoError(err)
	s.Empty(snap.Collections)
}

// Drop removes the datafile and its backup and cancels pending writes.
func (s *PersistenceTestSuite) TestDrop() {
	p := s.newPersistence(WithBackup(true))
	s.NoError(p.Save(ctx, s.snapshot()))
	s.NoError(p.Save(ctx, s.snapshot()))

	s.NoError(p.Drop(ctx))
	_, err := os.Stat(s.filename)
	s.True(os.IsNotExist(err))
	_, err = os.Stat(s.filename + "~")
	s.True(os.IsNotExist(err))

	// dropping again with nothing on disk is fine
	s.NoError(p.Drop(ctx))
}

// A save error surfaces as a persistence error with the save operation.
func (s *PersistenceTestSuite) TestSaveErrorWrapped() {
	s.filename = filepath.Join(s.T().TempDir(), "dir-not-file")
	s.Require().NoError(os.MkdirAll(s.filename, 0o755))
	p := s.newPersistence()

	err := p.Save(ctx, s.snapshot())
	var perr *domain.ErrPersistence
	s.ErrorAs(err, &perr)
	s.Equal("save", perr.Op)
}

// A corrupt datafile surfaces as a persistence error with the load
// operation.
func (s *PersistenceTestSuite) TestLoadErrorWrapped() {
	s.Require().NoError(os.WriteFile(s.filename, []byte("{not json"), 0o644))
	p := s.newPersistence()

	_, err := p.Load(ctx)
	var perr *domain.ErrPersistence
	s.ErrorAs(err, &perr)
	s.Equal("load", perr.Op)
}

// A canceled context stops every operation.
func (s *PersistenceTestSuite) TestCanceledContext() {
	p := s.newPersistence()
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Load(canceled)
	s.ErrorIs(err, context.Canceled)
	s.ErrorIs(p.Save(canceled, s.snapshot()), context.Canceled)
	s.ErrorIs(p.Flush(canceled), context.Canceled)
	s.ErrorIs(p.Drop(canceled), context.Canceled)
}

func TestPersistenceTestSuite(t *testing.T) {
	suite.Run(t, new(PersistenceTestSuite))
}

// Package repo is the facade over the engine: it wires storage,
// object store, staging area, commit chain, and history together and
// exposes the operations the CLI calls.
package repo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Piyush29quanta/zit-my-git/internal/commit"
	"github.com/Piyush29quanta/zit-my-git/internal/config"
	"github.com/Piyush29quanta/zit-my-git/internal/errors"
	"github.com/Piyush29quanta/zit-my-git/internal/history"
	"github.com/Piyush29quanta/zit-my-git/internal/index"
	"github.com/Piyush29quanta/zit-my-git/internal/journal"
	"github.com/Piyush29quanta/zit-my-git/internal/object"
	"github.com/Piyush29quanta/zit-my-git/internal/storage"
	"github.com/Piyush29quanta/zit-my-git/internal/workspace"

	"go.uber.org/zap"
)

// Repo is an open repository. Close releases the storage backend.
type Repo struct {
	root    string
	repoDir string
	cfg     *config.Config

	backend storage.Backend
	objects *object.Store
	stage   *index.Stage
	chain   *commit.Chain
	hist    *history.Engine
	journal *journal.Journal
	tree    *workspace.Worktree
	logger  *zap.Logger
}

// Init creates a repository at dir: the repository directory with an
// empty head, an empty index, and the configuration. Calling it on an
// already-initialized directory changes nothing and reports
// ALREADY_INITIALIZED.
func Init(dir string, cfg *config.Config, logger *zap.Logger) error {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	repoDir := filepath.Join(dir, workspace.RepoDir)
	if _, err := os.Stat(repoDir); err == nil {
		return errors.AlreadyInitialized(dir)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking %s: %w", repoDir, err)
	}

	if err := os.MkdirAll(repoDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", repoDir, err)
	}
	if err := config.Save(repoDir, cfg); err != nil {
		return err
	}

	backend, err := openBackend(repoDir, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	if cfg.Storage == config.StorageFS {
		if err := os.MkdirAll(filepath.Join(repoDir, "objects"), 0755); err != nil {
			return fmt.Errorf("creating objects directory: %w", err)
		}
	}
	if err := backend.Write(storage.KeyHead, []byte{}); err != nil {
		return fmt.Errorf("writing head: %w", err)
	}
	if err := backend.Write(storage.KeyIndex, []byte("[]")); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}

	journal.New(repoDir, logger).Record("init", "", "", "")
	logger.Info("initialized repository",
		zap.String("dir", dir),
		zap.String("storage", cfg.Storage))
	return nil
}

// Open locates the repository enclosing startDir and wires the engine.
func Open(startDir string, logger *zap.Logger) (*Repo, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	root, err := workspace.FindRoot(startDir)
	if err != nil {
		return nil, err
	}
	repoDir := filepath.Join(root, workspace.RepoDir)

	cfg, err := config.Load(repoDir)
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(repoDir, cfg)
	if err != nil {
		return nil, err
	}

	objects, err := object.NewStore(backend, cfg.CacheSize, logger)
	if err != nil {
		backend.Close()
		return nil, err
	}

	stage := index.New(backend, logger)
	chain := commit.NewChain(backend, objects, stage, logger)

	return &Repo{
		root:    root,
		repoDir: repoDir,
		cfg:     cfg,
		backend: backend,
		objects: objects,
		stage:   stage,
		chain:   chain,
		hist:    history.NewEngine(chain, objects, logger),
		journal: journal.New(repoDir, logger),
		tree:    workspace.NewWorktree(root),
		logger:  logger,
	}, nil
}

func openBackend(repoDir string, cfg *config.Config) (storage.Backend, error) {
	switch cfg.Storage {
	case config.StorageBadger:
		return storage.NewBadgerBackend(filepath.Join(repoDir, "db"), storage.BadgerOptions{
			CompressMin: cfg.CompressMin,
		})
	default:
		return storage.NewFSBackend(repoDir)
	}
}

func (r *Repo) Root() string {
	return r.root
}

func (r *Repo) Close() error {
	return r.backend.Close()
}

// Add snapshots the working file at path into the object store and
// stages it. A path that cannot be read fails the add and leaves the
// stage untouched.
func (r *Repo) Add(path string) error {
	rel, err := r.tree.Rel(path)
	if err != nil {
		return errors.MissingWorkingFile(path, err)
	}

	content, err := r.tree.Read(rel)
	if err != nil {
		return errors.MissingWorkingFile(rel, err)
	}

	digest, err := r.objects.Put(content)
	if err != nil {
		return err
	}
	if err := r.stage.Add(rel, digest); err != nil {
		return err
	}

	r.journal.Record("add", "", "", rel)
	return nil
}

// Commit finalizes the stage into a new commit and returns its digest.
// An empty stage still produces a valid, file-less commit.
func (r *Repo) Commit(message string) (string, error) {
	oldHead, err := r.chain.Head()
	if err != nil {
		return "", err
	}

	digest, err := r.chain.Commit(message)
	if err != nil {
		return "", err
	}

	r.journal.Record("commit", oldHead, digest, message)
	return digest, nil
}

// Log returns a lazy newest-first walker over the chain.
func (r *Repo) Log() *history.Walker {
	return history.NewWalker(r.chain)
}

// Head returns the current head digest, "" when there are no commits.
func (r *Repo) Head() (string, error) {
	return r.chain.Head()
}

// Diff computes the parent-relative diff of the given commit. The
// literal argument "HEAD" resolves to the current head.
func (r *Repo) Diff(digest string) ([]history.FileDiff, error) {
	if digest == "HEAD" {
		head, err := r.chain.Head()
		if err != nil {
			return nil, err
		}
		if head == "" {
			return nil, errors.NotFound("HEAD")
		}
		digest = head
	}
	return r.hist.Diff(digest)
}

// Cat returns the raw bytes of any stored object.
func (r *Repo) Cat(digest string) ([]byte, error) {
	return r.objects.Get(digest)
}

// Staged returns the current staging entries.
func (r *Repo) Staged() ([]index.Entry, error) {
	return r.stage.Load()
}

// Journal returns the recorded operations, oldest first.
func (r *Repo) Journal() ([]journal.ReadEntry, error) {
	return r.journal.Read()
}

package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"chordbook/internal/chordbook"
	"chordbook/internal/config"
	"chordbook/internal/connectivity"
	"chordbook/internal/encryption"
	"chordbook/internal/gateway"
	"chordbook/internal/store"
)

// PassphraseFunc supplies the key passphrase. It is only called when the
// configured store is encrypted.
type PassphraseFunc func() (string, error)

// Options tunes how an app is built. The zero value is fine.
type Options struct {
	Passphrase PassphraseFunc
	Verbose    bool
	// ForceOffline pins the connectivity monitor offline in addition to
	// the config's force_offline setting.
	ForceOffline bool
}

// ChordbookApp is the application layer between the CLI and the sync engine.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string ids, and releases the record store on Close.
type ChordbookApp struct {
	cfg      *config.Config
	records  chordbook.RecordStore
	monitor  *connectivity.Monitor
	engine   *chordbook.Engine
	replayer *chordbook.Replayer
	op       *Operation
	logger   *slog.Logger
	logFile  io.Closer
}

// NewChordbookApp creates a fully wired ChordbookApp from the given config.
// operation identifies the CLI command being run (e.g. "CreatePlaybook", "Sync").
// The caller must call Close when done.
func NewChordbookApp(ctx context.Context, cfg *config.Config, operation string, opts Options) (*ChordbookApp, error) {
	op := NewOperation(operation, time.Now())

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger, logFile, err := newLogger(cfg.LogDir, op.ID, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	sealer, err := unlockSealer(cfg, opts.Passphrase)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	records, err := store.NewRecordStoreFromConfig(ctx, cfg.Store, sealer)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening record store: %w", err)
	}

	log := &slogAdapter{l: logger}
	remote := gateway.New(cfg.Remote.BaseURL, cfg.Remote.Token, cfg.Remote.Timeout.Std())
	prober := connectivity.NewHTTPProber(
		cfg.Remote.BaseURL,
		cfg.Remote.HealthPath,
		cfg.Remote.Timeout.Std(),
		cfg.Connectivity.ProbeAttempts,
		cfg.Connectivity.ProbeDelay.Std(),
	)
	monitor := connectivity.NewMonitor(prober, cfg.Connectivity.PollInterval.Std(), log)
	if cfg.Connectivity.ForceOffline || opts.ForceOffline {
		monitor.SetForceOffline(true)
	}

	cache := chordbook.NewCache(records, log)
	engine := chordbook.NewEngine(cache, remote, monitor, log, chordbook.RealClock{}, chordbook.UUIDGenerator{})
	replayer := chordbook.NewReplayer(cache, remote, monitor, log)

	logger.Debug("operation started", "operation", op.Name, "store", cfg.Store.Type)

	return &ChordbookApp{
		cfg:      cfg,
		records:  records,
		monitor:  monitor,
		engine:   engine,
		replayer: replayer,
		op:       op,
		logger:   logger,
		logFile:  logFile,
	}, nil
}

func unlockSealer(cfg *config.Config, passphrase PassphraseFunc) (store.Sealer, error) {
	if cfg.Store.Type != "filesystem" || !cfg.Store.Encrypt {
		return nil, nil
	}
	keys, err := encryption.NewKeysFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating keys: %w", err)
	}
	if !keys.IsConfigured() {
		return nil, fmt.Errorf("store encryption is enabled but no keys exist: run 'chordbook keys init'")
	}
	if passphrase == nil {
		return nil, fmt.Errorf("store is encrypted and no passphrase was provided")
	}
	pass, err := passphrase()
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	sealer, err := keys.Unlock(pass)
	if err != nil {
		return nil, fmt.Errorf("unlocking keys: %w", err)
	}
	return sealer, nil
}

// InitKeys generates the key pair used for store encryption.
func InitKeys(cfg *config.Config, passphrase string) error {
	keys, err := encryption.NewKeysFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating keys: %w", err)
	}
	if keys.IsConfigured() {
		return fmt.Errorf("keys already exist at %s", cfg.Encryption.PrivateKeyPath)
	}
	return keys.Setup(passphrase)
}

// Playbooks returns the user's playbooks with songs resolved.
func (a *ChordbookApp) Playbooks(ctx context.Context) ([]*chordbook.Playbook, error) {
	pbs, err := a.engine.Playbooks(ctx, a.cfg.UserID)
	return pbs, a.op.Fail(err)
}

func (a *ChordbookApp) CreatePlaybook(ctx context.Context, name, description string) (*chordbook.Playbook, error) {
	pb, err := a.engine.CreatePlaybook(ctx, a.cfg.UserID, chordbook.PlaybookInput{Name: name, Description: description})
	return pb, a.op.Fail(err)
}

func (a *ChordbookApp) RenamePlaybook(ctx context.Context, rawID, name string) (*chordbook.Playbook, error) {
	pb, err := a.engine.UpdatePlaybook(ctx, chordbook.ParseEntityID(rawID), chordbook.PlaybookPatch{Name: &name})
	return pb, a.op.Fail(err)
}

// AddSongToPlaybook appends a song reference to a playbook.
func (a *ChordbookApp) AddSongToPlaybook(ctx context.Context, rawPlaybookID, rawSongID string) (*chordbook.Playbook, error) {
	pbID := chordbook.ParseEntityID(rawPlaybookID)
	pb, err := a.engine.Playbook(ctx, pbID)
	if err != nil {
		return nil, a.op.Fail(err)
	}
	if pb == nil {
		return nil, a.op.Fail(fmt.Errorf("playbook %s: %w", rawPlaybookID, chordbook.ErrNotFound))
	}
	songs := append(pb.Songs, chordbook.RefID(chordbook.ParseEntityID(rawSongID)))
	pb, err = a.engine.UpdatePlaybook(ctx, pbID, chordbook.PlaybookPatch{Songs: &songs})
	return pb, a.op.Fail(err)
}

func (a *ChordbookApp) DeletePlaybook(ctx context.Context, rawID string) error {
	return a.op.Fail(a.engine.DeletePlaybook(ctx, chordbook.ParseEntityID(rawID)))
}

func (a *ChordbookApp) Songs(ctx context.Context) ([]*chordbook.Song, error) {
	songs, err := a.engine.Songs(ctx, a.cfg.UserID)
	return songs, a.op.Fail(err)
}

func (a *ChordbookApp) Song(ctx context.Context, rawID string) (*chordbook.Song, error) {
	s, err := a.engine.Song(ctx, chordbook.ParseEntityID(rawID))
	if err == nil && s == nil {
		err = fmt.Errorf("song %s: %w", rawID, chordbook.ErrNotFound)
	}
	return s, a.op.Fail(err)
}

func (a *ChordbookApp) CreateSong(ctx context.Context, in chordbook.SongInput) (*chordbook.Song, error) {
	s, err := a.engine.CreateSong(ctx, a.cfg.UserID, in)
	return s, a.op.Fail(err)
}

func (a *ChordbookApp) DeleteSong(ctx context.Context, rawID string) error {
	return a.op.Fail(a.engine.DeleteSong(ctx, chordbook.ParseEntityID(rawID)))
}

// Status is a snapshot of reachability and unsynced local work.
type Status struct {
	Online        bool
	ForcedOffline bool
	Pending       []chordbook.PendingChange
}

func (a *ChordbookApp) Status(ctx context.Context) (*Status, error) {
	online := a.monitor.CheckNow(ctx)
	pending, err := a.engine.Unsynced(ctx)
	if err != nil {
		return nil, a.op.Fail(err)
	}
	return &Status{Online: online, ForcedOffline: a.monitor.ForcedOffline(), Pending: pending}, nil
}

// Sync replays local work once and returns what is still unsynced.
func (a *ChordbookApp) Sync(ctx context.Context) ([]chordbook.PendingChange, error) {
	a.replayer.Run(ctx)
	pending, err := a.engine.Unsynced(ctx)
	return pending, a.op.Fail(err)
}

// Watch polls connectivity and replays after every reconnect until ctx is
// cancelled.
func (a *ChordbookApp) Watch(ctx context.Context) error {
	stop := a.replayer.Watch(ctx)
	defer stop()

	a.logger.Info("watching for connectivity changes", "poll_interval", a.cfg.Connectivity.PollInterval.Std())
	a.monitor.Run(ctx)
	return nil
}

// Close logs the outcome of the operation and releases the record store
// and log file.
func (a *ChordbookApp) Close() error {
	var firstErr error

	a.logger.Debug("operation finished",
		"operation", a.op.Name,
		"status", a.op.Status,
		"elapsed", a.op.Elapsed(time.Now()),
	)

	if err := a.records.Close(); err != nil {
		firstErr = fmt.Errorf("closing record store: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

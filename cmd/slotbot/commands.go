package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/avoronov/slotbot/pkg/api"
	"github.com/avoronov/slotbot/pkg/booking"
	"github.com/avoronov/slotbot/pkg/bot"
	"github.com/avoronov/slotbot/pkg/config"
	"github.com/avoronov/slotbot/pkg/editflow"
	"github.com/avoronov/slotbot/pkg/logger"
	"github.com/avoronov/slotbot/pkg/render"
	"github.com/avoronov/slotbot/pkg/roster"
	"github.com/avoronov/slotbot/pkg/schedcmd"
	"github.com/avoronov/slotbot/pkg/store"
)

// adminSet is a mutable roster.AdminDirectory. The config watcher
// swaps its contents when the admin list changes on disk.
type adminSet struct {
	mu  sync.RWMutex
	ids []int64
}

func newAdminSet(ids []int64) *adminSet {
	s := &adminSet{}
	s.Update(ids)
	return s
}

func (s *adminSet) Update(ids []int64) {
	s.mu.Lock()
	s.ids = append([]int64(nil), ids...)
	s.mu.Unlock()
}

func (s *adminSet) IsAdmin(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s *adminSet) AdminIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]int64(nil), s.ids...)
}

// cacheBatch resolves ids to names from the known-contact cache. Used
// when no membership API credential is configured.
type cacheBatch struct {
	store *store.Store
}

func (c cacheBatch) ResolveNames(_ context.Context, ids []int64) ([]string, error) {
	contacts := c.store.Contacts()
	names := make([]string, len(ids))
	for i, id := range ids {
		if contact, ok := contacts[strconv.FormatInt(id, 10)]; ok && contact.Name != "" {
			names[i] = contact.Name
		} else {
			names[i] = fmt.Sprintf("id%d", id)
		}
	}
	return names, nil
}

// runCommand starts the bot: persistence, roster, edit flow, the ops
// API, and the event loop.
type runCommand struct {
	configPath string
	actorID    int64
	actorName  string
}

func (c *runCommand) Execute() error {
	cfg, err := config.NewLoader(c.configPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Output: cfg.Logging.Output,
		Format: cfg.Logging.Format,
	})

	schema := schemaFromConfig(cfg)

	var mirror store.Mirror
	if cfg.MirrorEnabled() {
		mirror = store.NewHTTPMirror(cfg.Mirror.BaseURL, cfg.Mirror.StoreID, cfg.Mirror.Token, cfg.Mirror.Timeout)
		log.Info("remote mirror enabled", "store_id", cfg.Mirror.StoreID)
	}

	gateway, err := store.NewGateway(store.GatewayConfig{
		DBPath:        cfg.Storage.DBPath,
		DocumentName:  cfg.Storage.DocumentName,
		MirrorTimeout: cfg.Mirror.Timeout,
	}, schema, mirror, log)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := gateway.Close(); err != nil {
			log.Error("failed to close storage", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := store.New(gateway.Load(ctx), schema, gateway, log)
	engine := booking.New(st, log)
	admins := newAdminSet(cfg.Admins)

	var students roster.Source
	var batch roster.BatchResolver
	var resolver bot.NameResolver
	console := bot.NewConsole(os.Stdin, os.Stdout, c.actorID, c.actorName)
	resolver = console

	if cfg.LiveRosterEnabled() {
		client := roster.NewClient(roster.ClientConfig{
			BaseURL: cfg.Roster.BaseURL,
			Token:   cfg.Roster.Token,
			GroupID: cfg.Roster.GroupID,
		})
		students = roster.NewLive(client, st, engine, admins, roster.Config{
			PageSize:        cfg.Roster.PageSize,
			ManagerPageSize: cfg.Roster.ManagerPageSize,
			CacheTTL:        cfg.Roster.CacheTTL,
		}, log)
		batch = client
		log.Info("live roster strategy enabled", "group_id", cfg.Roster.GroupID)
	} else {
		students = roster.NewFallback(st, admins, log)
		batch = cacheBatch{store: st}
		log.Warn("no roster credential, using cached-contact fallback")
	}

	editor := editflow.NewManager(students, engine, st, cfg.ListLimit, log)
	parser := schedcmd.NewParser(categoryRefs(cfg), cfg.SlotsPerCategory)

	b := bot.New(bot.Deps{
		Source:        console,
		Responder:     console,
		Resolver:      resolver,
		Store:         st,
		Engine:        engine,
		Students:      students,
		Admins:        admins,
		Batch:         batch,
		Editor:        editor,
		Commands:      parser,
		NameBatchSize: cfg.Roster.NameBatchSize,
		Logger:        log,
	})

	srv := api.New(cfg.API.Addr, st, log)
	go func() {
		if err := srv.Start(); err != nil {
			log.Error("ops api failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("ops api shutdown failed", "error", err)
		}
	}()

	if watchPath := c.watchPath(); watchPath != "" {
		watcher, err := config.WatchFile(watchPath, func(next *config.Config) {
			admins.Update(next.Admins)
			logger.SetLevel(log, next.Logging.Level)
			log.Info("configuration reloaded", "admins", len(next.Admins), "log_level", next.Logging.Level)
		}, log)
		if err != nil {
			log.Warn("config watching unavailable", "error", err)
		} else {
			defer func() {
				if err := watcher.Close(); err != nil {
					log.Error("failed to close config watcher", "error", err)
				}
			}()
		}
	}

	log.Info("slotbot started", "categories", cfg.CategoryNames())
	if err := b.Run(ctx); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// watchPath returns the config file to watch for live reloads, if any.
func (c *runCommand) watchPath() string {
	if c.configPath != "" {
		return c.configPath
	}
	for _, path := range config.SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// scheduleCommand prints the persisted schedule as a table.
type scheduleCommand struct {
	configPath string
}

func (c *scheduleCommand) Execute() error {
	cfg, err := config.NewLoader(c.configPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	schema := schemaFromConfig(cfg)

	var mirror store.Mirror
	if cfg.MirrorEnabled() {
		mirror = store.NewHTTPMirror(cfg.Mirror.BaseURL, cfg.Mirror.StoreID, cfg.Mirror.Token, cfg.Mirror.Timeout)
	}

	gateway, err := store.NewGateway(store.GatewayConfig{
		DBPath:        cfg.Storage.DBPath,
		DocumentName:  cfg.Storage.DocumentName,
		MirrorTimeout: cfg.Mirror.Timeout,
	}, schema, mirror, logger.Noop())
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() { _ = gateway.Close() }()

	snap := gateway.Load(context.Background())
	return render.WriteTable(os.Stdout, snap, cfg.CategoryNames())
}

// schemaFromConfig derives the canonical store shape from the
// configuration.
func schemaFromConfig(cfg *config.Config) store.Schema {
	return store.Schema{
		Categories:          cfg.CategoryNames(),
		SlotCount:           cfg.SlotsPerCategory,
		DefaultCapacity:     cfg.DefaultCapacity,
		DefaultLimitPerUser: cfg.DefaultLimitPerUser,
	}
}

func categoryRefs(cfg *config.Config) []schedcmd.CategoryRef {
	refs := make([]schedcmd.CategoryRef, 0, len(cfg.Categories))
	for _, cat := range cfg.Categories {
		refs = append(refs, schedcmd.CategoryRef{Code: cat.Code, Name: cat.Name})
	}
	return refs
}

// Package app assembles the bot: config, storage, the WhatsApp adapter,
// the command pipeline, and the reminder scheduler.
package app

import (
	"context"
	"sync"
	"time"

	"kelasbot/internal/config"
	"kelasbot/internal/cooldown"
	"kelasbot/internal/handlers"
	"kelasbot/internal/reminder"
	"kelasbot/internal/router"
	"kelasbot/internal/store"
	"kelasbot/internal/transport/whatsapp"
	"kelasbot/pkg/logx"
)

type App struct {
	cfgm    *config.Manager
	log     logx.Logger
	store   store.Store
	driver  string
	adapter *whatsapp.Adapter
	limiter *cooldown.Limiter
	disp    *router.Dispatcher
	rem     *reminder.Service

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(ctx context.Context, cfgPath string) (*App, error) {
	bootLog := logx.New(logx.Config{Level: "info", Console: true})

	cfgm := config.NewManager(cfgPath, bootLog.With(logx.String("comp", "config")))
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}).With(logx.String("comp", "app"))

	st, driver, err := store.Open(ctx, cfg.Storage, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	adapter, err := whatsapp.New(ctx, whatsapp.Config{
		SessionPath:   cfg.WhatsApp.SessionPath,
		SendPerSecond: cfg.WhatsApp.SendPerSecond,
	}, log.With(logx.String("comp", "whatsapp")))
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	rem := reminder.New(st, adapter, cfg.ReminderInterval(), cfg.Location(),
		log.With(logx.String("comp", "reminder")))

	limiter := cooldown.New(cfg.CooldownWindow(), handlers.ExemptCommands()...)

	reg := router.NewRegistry()
	handlers.Register(reg, handlers.Deps{
		Reminder:  rem,
		Limiter:   limiter,
		StartedAt: time.Now(),
		Driver:    driver,
	})

	disp := router.NewDispatcher(reg, limiter, cfgm, adapter, st,
		log.With(logx.String("comp", "dispatch")))

	return &App{
		cfgm:    cfgm,
		log:     log,
		store:   st,
		driver:  driver,
		adapter: adapter,
		limiter: limiter,
		disp:    disp,
		rem:     rem,
	}, nil
}

func (a *App) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.adapter.OnMessage(a.disp.Handle)
	if err := a.adapter.Connect(runCtx); err != nil {
		cancel()
		return err
	}

	a.rem.Start(runCtx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.cfgm.Watch(runCtx); err != nil {
			a.log.Warn("config watcher stopped", logx.Err(err))
		}
	}()

	// Hot-reload fan-out: only the knobs that are safe to change live.
	sub := a.cfgm.Subscribe(4)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-runCtx.Done():
				return
			case cfg, ok := <-sub:
				if !ok {
					return
				}
				a.limiter.SetWindow(cfg.CooldownWindow())
				a.log.Info("config reloaded",
					logx.Int("admins", len(cfg.AdminNumbers)),
					logx.Int("allowed_groups", len(cfg.AllowedGroups)),
					logx.Duration("cooldown", cfg.CooldownWindow()))
			}
		}
	}()

	// Periodic cooldown sweep. Correctness never needs it; it just keeps the
	// map from accumulating long-gone senders.
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		t := time.NewTicker(10 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-t.C:
				a.limiter.Sweep()
			}
		}
	}()

	a.log.Info("bot started",
		logx.String("storage", a.driver),
		logx.String("prefix", a.cfgm.Get().Prefix))
	return nil
}

// Stop shuts everything down in dependency order: scheduler first so no new
// sends race the closing adapter, storage last.
func (a *App) Stop() {
	if a.cancel != nil {
		a.cancel()
	}
	a.rem.Stop()
	a.adapter.Close()
	a.wg.Wait()
	if err := a.store.Close(); err != nil {
		a.log.Warn("storage close failed", logx.Err(err))
	}
	a.log.Info("stopped")
}

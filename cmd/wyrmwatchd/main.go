// Command wyrmwatchd is the realm process: it loads configuration,
// opens the database, loads the content catalog, brings up the
// WorldRouter and its ZoneInstances, and starts the ConnectionServer.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wyrmwatch/core/internal/config"
	"github.com/wyrmwatch/core/internal/content"
	"github.com/wyrmwatch/core/internal/creature"
	"github.com/wyrmwatch/core/internal/entitymodel"
	"github.com/wyrmwatch/core/internal/formula"
	"github.com/wyrmwatch/core/internal/handler"
	"github.com/wyrmwatch/core/internal/netio"
	"github.com/wyrmwatch/core/internal/netio/packet"
	"github.com/wyrmwatch/core/internal/persist"
	"github.com/wyrmwatch/core/internal/router"
	"github.com/wyrmwatch/core/internal/spatial"
	"github.com/wyrmwatch/core/internal/zone"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Configuration
	cfgPath := config.ResolvePath("config/server.toml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// 2. Logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()
	printBanner(cfg.Server.Name, cfg.Server.RealmID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Database and migrations
	printSection("Database")
	dbCtx, dbCancel := context.WithTimeout(ctx, 30*time.Second)
	db, err := persist.NewDB(dbCtx, cfg.Database, log)
	dbCancel()
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("connected to PostgreSQL")

	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if version, err := persist.SchemaVersion(ctx, db.Pool); err == nil {
		printOK(fmt.Sprintf("schema up to date (version %d)", version))
	} else {
		printOK("schema up to date")
	}

	walRepo := persist.NewWALRepo(db)
	if stale, err := walRepo.LoadUnprocessed(ctx); err != nil {
		log.Warn("wal reconciliation scan failed", zap.Error(err))
	} else if len(stale) > 0 {
		log.Warn("unprocessed economic wal entries from a previous run", zap.Int("count", len(stale)))
	}
	fmt.Println()

	realmRepo := persist.NewRealmRepo(db)

	// 4. Content catalog
	printSection("Content")
	cat, err := content.Load(cfg.ContentRoot, log)
	if err != nil {
		return fmt.Errorf("content: %w", err)
	}
	encounters, err := content.LoadEncounters(cfg.ContentRoot, log)
	if err != nil {
		return fmt.Errorf("encounters: %w", err)
	}
	printStat("creatures", cat.Creatures.Count())
	printStat("items", cat.Items.Count())
	printStat("spells", cat.Spells.Count())
	printStat("loot tables", cat.LootTables.Count())
	printStat("spawns", cat.Spawns.Count())
	printStat("encounters", len(encounters))
	fmt.Println()

	fx, err := formula.NewEngine("scripts", log)
	if err != nil {
		return fmt.Errorf("formula engine: %w", err)
	}
	defer fx.Close()

	templateFor := func(id int32) (creature.Template, bool) {
		tpl, ok := cat.Creatures.Get(int(id))
		if !ok {
			return creature.Template{}, false
		}
		return creature.Template{
			ID:             int32(tpl.ID),
			MinDamage:      tpl.MinDamage,
			MaxDamage:      tpl.MaxDamage,
			Armor:          tpl.Armor,
			AttackRange:    tpl.AttackRangeU,
			AttackCooldown: tpl.AttackCooldown,
			MoveSpeed:      tpl.MoveSpeed,
			RespawnTime:    tpl.RespawnTime,
			XPBase:         tpl.XPBase,
		}, true
	}

	// 5. WorldRouter and zones
	printSection("World")
	wr := router.New(log)
	binder := handler.NewSessionBinder()

	playerSend := func(playerGUID entitymodel.GUID, message any) {
		data, ok := message.([]byte)
		if !ok {
			return
		}
		if sess, found := binder.Session(playerGUID); found {
			sess.Send(data)
		}
	}
	sendBytes := func(guid entitymodel.GUID, data []byte) {
		playerSend(guid, data)
	}

	aiTick := time.Duration(cfg.Zone.AITickIntervalMs) * time.Millisecond
	zoneSpawns := make(map[int32][]spawnGroup)
	for _, s := range cat.Spawns.List() {
		zoneSpawns[s.ZoneID] = append(zoneSpawns[s.ZoneID], spawnGroup{
			creatureID: int32(s.CreatureID),
			pos:        spatial.Vec3{X: s.X, Y: s.Y, Z: s.Z},
			count:      s.Count,
		})
	}

	shards := make(map[zone.Ref]*handler.Shard)
	zoneCount, creatureCount, harvestCount, bossCount := 0, 0, 0, 0
	for zoneID, groups := range zoneSpawns {
		ref := zone.Ref{ZoneID: zoneID}
		inst := zone.New(ref, cfg.Zone.SpatialCellSize, playerSend, log)
		mgr := creature.NewManager(inst, fx, templateFor,
			time.Duration(cfg.Zone.CombatTimeoutMs)*time.Millisecond,
			cfg.Zone.MaxCreaturesPerTick, log)
		// Runs inside the zone actor (the encounter tick), so adds go
		// through AddEntityDirect rather than the command channel.
		spawnAdds := func(creatureID int32, pos spatial.Vec3, count int) {
			tpl, haveAddTpl := cat.Creatures.Get(int(creatureID))
			for i := 0; i < count; i++ {
				health := int32(100)
				level := int32(1)
				name := ""
				if haveAddTpl {
					health = tpl.Health
					level = int32(tpl.Level)
					name = tpl.Name
				}
				inst.AddEntityDirect(&entitymodel.Entity{
					GUID:      wr.NextGUID(entitymodel.TypeCreature),
					Type:      entitymodel.TypeCreature,
					Position:  pos,
					Level:     level,
					Health:    health,
					MaxHealth: health,
					Name:      name,
					Creature: &entitymodel.CreatureData{
						CreatureTemplateID: creatureID,
						SpawnPosition:      pos,
					},
				})
			}
		}
		drv := newEncounterDriver(inst, sendBytes, spawnAdds, log)

		// The actor must be draining its mailbox before the channel-
		// gated AddEntity calls below can complete.
		go inst.Run(ctx, aiTick, func(now time.Time) {
			mgr.Tick(now, inst.ListCreaturesDirect())
			drv.Tick(now)
		})

		rng := rand.New(rand.NewSource(int64(zoneID)))
		for _, g := range groups {
			tpl, haveTpl := cat.Creatures.Get(int(g.creatureID))
			for i := 0; i < g.count; i++ {
				guid := wr.NextGUID(entitymodel.TypeCreature)
				health := int32(100)
				level := int32(1)
				name := ""
				if haveTpl {
					health = tpl.Health
					level = int32(tpl.Level)
					name = tpl.Name
				}
				jitter := spatial.Vec3{X: rng.Float64()*4 - 2, Y: rng.Float64()*4 - 2}
				pos := spatial.Vec3{X: g.pos.X + jitter.X, Y: g.pos.Y + jitter.Y, Z: g.pos.Z}
				inst.AddEntity(&entitymodel.Entity{
					GUID:      guid,
					Type:      entitymodel.TypeCreature,
					Position:  pos,
					Level:     level,
					Health:    health,
					MaxHealth: health,
					Name:      name,
					Creature: &entitymodel.CreatureData{
						CreatureTemplateID: g.creatureID,
						SpawnPosition:      pos,
					},
				})
				creatureCount++

				if def, isBoss := encounters[g.creatureID]; isBoss {
					var attachErr error
					inst.Exec(func() { attachErr = drv.attach(guid, def) })
					if attachErr != nil {
						log.Error("encounter attach failed", zap.Int32("boss", g.creatureID), zap.Error(attachErr))
						continue
					}
					bossCount++
				}
			}
		}

		for _, node := range cat.Harvest.List() {
			if node.ZoneID != zoneID {
				continue
			}
			inst.AddEntity(&entitymodel.Entity{
				GUID:     wr.NextGUID(entitymodel.TypeTrigger),
				Type:     entitymodel.TypeTrigger,
				Position: spatial.Vec3{X: node.X, Y: node.Y, Z: node.Z},
				Trigger:  &entitymodel.TriggerData{TriggerID: int32(node.ResourceID), Radius: 3},
			})
			harvestCount++
		}

		wr.Register(inst)
		shards[ref] = &handler.Shard{Instance: inst, Creatures: mgr}
		zoneCount++
	}
	printStat("zones started", zoneCount)
	printStat("creatures spawned", creatureCount)
	printStat("harvest nodes placed", harvestCount)
	printStat("bosses attached", bossCount)
	fmt.Println()

	// 6. Connection server
	printSection("Network")
	deps := &handler.Deps{
		Cfg:        cfg,
		Log:        log,
		Router:     wr,
		Catalog:    cat,
		Shards:     shards,
		Formula:    fx,
		Accounts:   persist.NewAccountRepo(db),
		Characters: persist.NewCharacterRepo(db),
		Items:      persist.NewItemRepo(db),
		Realms:     realmRepo,
		PvP:        persist.NewPvPRepo(db),
		WAL:        walRepo,
		Bind:       binder,
		DBTimeout:  5 * time.Second,
	}
	deps.Duels = handler.NewDuelRegistry(cfg.Duel, deps.PvP, binder, deps.DBTimeout, log)

	reg := packet.NewRegistry(log)
	handler.RegisterAll(reg, deps)

	specs := []netio.ListenSpec{
		{Category: packet.PortWorld, Address: cfg.Network.BindAddress},
	}
	if cfg.Network.AuthBindAddress != "" {
		specs = append(specs, netio.ListenSpec{Category: packet.PortAuth, Address: cfg.Network.AuthBindAddress})
	}
	if cfg.Network.RealmBindAddress != "" {
		specs = append(specs, netio.ListenSpec{Category: packet.PortRealm, Address: cfg.Network.RealmBindAddress})
	}
	rateLimit := netio.NewRateLimitConfig(cfg.RateLimit.Enabled, cfg.RateLimit.PacketsPerSecond)
	srv, err := netio.NewServer(specs, reg, cfg.Network.InQueueSize, cfg.Network.OutQueueSize,
		cfg.Network.ReadTimeout, cfg.Network.WriteTimeout, rateLimit, log)
	if err != nil {
		return fmt.Errorf("net server: %w", err)
	}
	srv.SetDisconnectHandler(func(sess *netio.Session) {
		handler.CleanupSession(sess, deps)
	})
	go srv.Run(ctx)
	printOK(fmt.Sprintf("world listener on %s", cfg.Network.BindAddress))
	fmt.Println()

	// 7. Realm status heartbeat
	go publishRealmStatus(ctx, realmRepo, int32(cfg.Server.RealmID), log)

	printSection("Ready")
	printReady(fmt.Sprintf("realm %q online", cfg.Server.Name))
	fmt.Println()

	// 8. Signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	cancel()
	offlineCtx, offlineCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer offlineCancel()
	if err := realmRepo.UpdateStatus(offlineCtx, int32(cfg.Server.RealmID), false, 0); err != nil {
		log.Warn("failed to mark realm offline", zap.Error(err))
	}
	log.Info("realm stopped")
	return nil
}

type spawnGroup struct {
	creatureID int32
	pos        spatial.Vec3
	count      int
}

func publishRealmStatus(ctx context.Context, repo *persist.RealmRepo, realmID int32, log *zap.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := repo.UpdateStatus(ctx, realmID, true, 0); err != nil {
				log.Warn("realm heartbeat failed", zap.Error(err))
			}
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}

func printBanner(name string, realmID int) {
	fmt.Printf("\033[36;1m=== wyrmwatch :: %s (realm %d) ===\033[0m\n\n", name, realmID)
}

func printSection(title string) {
	fmt.Printf("\033[36;1m-- %s --\033[0m\n", title)
}

func printStat(label string, count int) {
	dots := 24 - len(label)
	if dots < 2 {
		dots = 2
	}
	pad := ""
	for i := 0; i < dots; i++ {
		pad += "."
	}
	fmt.Printf("  %s%s %d\n", label, pad, count)
}

func printOK(msg string) {
	fmt.Printf("\033[32m  ok\033[0m  %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("\033[32;1m  > %s\033[0m\n", msg)
}

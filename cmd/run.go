package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"time"

	"chewbot/bot"
	"chewbot/bot/common"
	"chewbot/bot/features/arena"
	"chewbot/bot/features/bankheist"
	"chewbot/bot/features/duel"
	"chewbot/bot/features/points"
	"chewbot/config"
	"chewbot/database"
	"chewbot/events"
	"chewbot/infrastructure"
	"chewbot/messages"
	"chewbot/notify"
	"chewbot/participation"
	"chewbot/repository"
	"chewbot/service"
	"chewbot/telemetry"

	"github.com/sirupsen/logrus"
)

// loopQueueSize bounds how many chat commands may wait for the event loop
const loopQueueSize = 256

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting chewbot...")

	// Load configuration
	cfg := config.Get()
	setupLogging(cfg)

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Println("Closing database connection...")
		db.Close()
	}()
	log.Println("Database connection established successfully")

	// Initialize event bus and unit of work factory
	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	translator := messages.NewTranslator(cfg.Locale)
	telemetry.Init()

	// Initialize services
	log.Println("Initializing services...")
	pointsService := service.NewPointsService(uowFactory, cfg.StartingBalance)

	loop := participation.NewLoop(loopQueueSize)
	twitchBot := bot.New(bot.Config{
		Username:   cfg.TwitchUsername,
		OAuthToken: cfg.TwitchOAuthToken,
		Channels:   cfg.TwitchChannels,
		Prefix:     cfg.CommandPrefix,
	}, loop, pointsService)

	achievementService := service.NewAchievementService(uowFactory, twitchBot.Chat(), translator)
	achievementService.Subscribe(eventBus)

	engine := participation.NewService(loop, participation.Env{
		Chat:       twitchBot.Chat(),
		Users:      pointsService,
		Translator: translator,
		Publisher:  eventBus,
		Random:     rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())),
	})
	registerFeatures(twitchBot, cfg, pointsService, engine, translator)
	log.Println("Services initialized successfully")

	// Optional integrations
	natsClient, err := setupNATS(ctx, cfg, eventBus)
	if err != nil {
		return err
	}
	if natsClient != nil {
		defer func() {
			if err := natsClient.Close(); err != nil {
				log.Printf("Error closing NATS connection: %v", err)
			}
		}()
	}

	if cfg.DiscordToken != "" {
		session, err := notify.NewDiscordSession(cfg.DiscordToken)
		if err != nil {
			return err
		}
		defer session.Close()
		notify.NewDiscordNotifier(session, cfg.DiscordChannelID).Subscribe(eventBus)
		log.Println("Mirroring event results to Discord")
	}

	metricsServer := startMetricsServer(cfg.MetricsAddr)

	// Start the event loop and the Twitch connection
	go loop.Run(ctx)

	botErr := make(chan error, 1)
	go func() {
		botErr <- twitchBot.Run(ctx)
	}()

	log.Printf("Bot is running in %s mode...", cfg.Environment)
	select {
	case <-ctx.Done():
		err = <-botErr
	case err = <-botErr:
	}

	// Cleanup resources
	log.Println("Shutting down bot...")
	loop.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error stopping metrics server: %v", err)
	}

	if err != nil {
		return fmt.Errorf("twitch bot stopped: %w", err)
	}
	log.Println("Shutdown completed")
	return nil
}

func registerFeatures(b *bot.Bot, cfg *config.Config, users *service.PointsService, engine *participation.Service, translator *messages.Translator) {
	duelFeature := duel.New(users, engine, translator, timing(cfg.DuelParticipationSeconds, cfg.DuelCooldownSeconds))

	b.Register(points.New(users, translator).Commands()...)
	b.Register(duelFeature.Commands()...)
	b.Register(bankheist.New(engine, translator, timing(cfg.BankheistParticipationSeconds, cfg.BankheistCooldownSeconds)).Commands()...)
	b.Register(arena.New(engine, translator, timing(cfg.ArenaParticipationSeconds, cfg.ArenaCooldownSeconds), cfg.ArenaTimeoutSeconds).Commands()...)
	b.Listen(duelFeature)
}

func timing(participationSeconds, cooldownSeconds int) common.Timing {
	return common.Timing{
		Participation: time.Duration(participationSeconds) * time.Second,
		Cooldown:      time.Duration(cooldownSeconds) * time.Second,
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.Environment == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Printf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// setupNATS forwards bus events to JetStream. It returns nil when NATS is not configured.
func setupNATS(ctx context.Context, cfg *config.Config, bus *events.Bus) (*infrastructure.NATSClient, error) {
	if cfg.NATSServers == "" {
		log.Println("NATS_SERVERS not set, event streaming disabled")
		return nil, nil
	}

	client := infrastructure.NewNATSClient(cfg.NATSServers)
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := client.EnsureStream(mapper.GetAllSubjects()); err != nil {
		_ = client.Close()
		return nil, err
	}
	infrastructure.NewNATSEventForwarder(client, mapper).Subscribe(bus)
	return client, nil
}

func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Metrics server error: %v", err)
		}
	}()
	log.Printf("Serving metrics on %s/metrics", addr)
	return server
}

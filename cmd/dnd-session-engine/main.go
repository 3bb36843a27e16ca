package main

import (
	"context"
	"os"
	"time"

	"github.com/bradreaney/dnd-session-engine/internal/api"
	"github.com/bradreaney/dnd-session-engine/internal/constants"
	"github.com/bradreaney/dnd-session-engine/internal/engine"
	"github.com/bradreaney/dnd-session-engine/internal/logging"
	"github.com/bradreaney/dnd-session-engine/internal/narrative"
	"github.com/bradreaney/dnd-session-engine/internal/realtime"
	"github.com/bradreaney/dnd-session-engine/internal/rules"
	"github.com/bradreaney/dnd-session-engine/internal/session"

	"github.com/gin-gonic/gin"
)

func main() {
	checkEnvVars([]string{constants.EnvGeminiAPIKey})

	// Configuration path may be provided via DNDSE_CONFIG or defaults to
	// ./dnd_session_config.json in the current working directory. A
	// missing file runs on defaults.
	configPath := os.Getenv(constants.EnvConfigPath)
	if configPath == "" {
		configPath = constants.DefaultConfigPath
	}
	cfg := loadConfigOrExit(configPath)

	repo := createRepositoryOrExit(cfg.DatabasePath)
	store := session.NewStore(repo)
	hub := realtime.NewHub()

	generator, err := narrative.NewGeminiGenerator(context.Background(), os.Getenv(constants.EnvGeminiAPIKey), cfg.GeminiModel)
	if err != nil {
		logging.Fatal("Failed to initialize narrative generator", err, nil)
	}
	narrator := narrative.NewNarrator(generator, repo, cfg.NarratorPrompt, cfg.NarrativeTimeout, cfg.NarrativeCacheTTL)

	eng := engine.New(store, repo, narrator, hub, rules.NewRoller(time.Now().UnixNano()), cfg.ContextMessageLimit)
	handler := api.NewHandler(repo, eng, hub)

	startIdleScanner(store, cfg.SessionIdleTimeout)

	router := gin.Default()

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		apiRoutes.GET(constants.RouteHealth, handler.Health)
		apiRoutes.GET(constants.RouteVersion, api.Version)

		apiRoutes.POST(constants.RouteCampaigns, handler.CreateCampaign)
		apiRoutes.GET(constants.RouteCampaignByID, handler.GetCampaign)
		apiRoutes.POST(constants.RouteCharacters, handler.CreateCharacter)
		apiRoutes.GET(constants.RouteCharacterByID, handler.GetCharacter)
		apiRoutes.POST(constants.RouteSessions, handler.CreateSession)
		apiRoutes.GET(constants.RouteSessionByID, handler.GetSession)
		apiRoutes.GET(constants.RouteSessionMessages, handler.GetSessionMessages)

		apiRoutes.GET(constants.RouteWebsocket, handler.Websocket)
	}

	addr := cfg.ServerAddress
	logging.Info("Server started", logging.Fields{constants.LogFieldAddr: addr})
	if err := router.Run(addr); err != nil {
		logging.Fatal("Failed to start server", err, nil)
	}
}

func checkEnvVars(vars []string) {
	for _, v := range vars {
		if os.Getenv(v) == "" {
			logging.Fatal("Required environment variable not set", nil, logging.Fields{"var": v})
		}
	}
}

package main

import (
	"log"

	"github.com/rufio-world/little-lies-game/internal/config"
	"github.com/rufio-world/little-lies-game/internal/database"
	"github.com/rufio-world/little-lies-game/internal/handlers"
	"github.com/rufio-world/little-lies-game/internal/middleware"
	"github.com/rufio-world/little-lies-game/internal/packs"
	"github.com/rufio-world/little-lies-game/internal/services"
	"github.com/rufio-world/little-lies-game/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	registry := packs.LoadRegistry()
	hub := ws.NewHub()

	authService := services.NewAuthService(db, cfg.JWTSecret)
	scoringService := services.NewScoringService()
	roomService := services.NewRoomService(db, registry)
	roundService := services.NewRoundService(db, registry, scoringService, cfg.AnswerPhase, cfg.VotePhase)
	answerService := services.NewAnswerService(db, roomService)
	voteService := services.NewVoteService(db, roomService)
	readinessService := services.NewReadinessService(db, roomService)

	authHandler := handlers.NewAuthHandler(authService)
	packsHandler := handlers.NewPacksHandler(registry, authService)
	gameHandler := handlers.NewGameHandler(roomService, roundService, authService, hub, cfg.PublicURL)
	playHandler := handlers.NewPlayHandler(roomService, roundService, answerService, voteService, readinessService, hub)
	wsHandler := handlers.NewWSHandler(roomService, hub)

	sweeper := services.NewSweeper(db, roomService, roundService, hub, cfg.SweepInterval, cfg.InactivityWindow)
	sweeper.Start()
	defer sweeper.Stop()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/ws/room/:code", wsHandler.HandleRoomWebSocket)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.JWTAuth(authService), authHandler.Me)
		}

		api.GET("/packs", packsHandler.ListPacks)
		api.POST("/packs/:id/unlock", middleware.JWTAuth(authService), packsHandler.UnlockPack)

		games := api.Group("/games")
		games.Use(middleware.OptionalJWT(authService))
		{
			games.POST("", gameHandler.CreateGame)
			games.POST("/join", gameHandler.JoinGame)
			games.GET("/:code/state", gameHandler.GetState)
			games.GET("/:code/qr", gameHandler.JoinQR)
			games.GET("/:code/leaderboard", gameHandler.GetLeaderboard)
			games.POST("/:code/start", gameHandler.StartGame)
			games.POST("/:code/advance", gameHandler.Advance)
			games.POST("/:code/kick", gameHandler.KickPlayer)
			games.POST("/:code/close", gameHandler.CloseGame)
		}

		play := api.Group("/play")
		{
			play.POST("/answer", playHandler.SubmitAnswer)
			play.POST("/vote", playHandler.SubmitVote)
			play.POST("/ready", playHandler.MarkReady)
			play.POST("/leave", playHandler.Leave)
			play.GET("/ballot", playHandler.GetBallot)
		}
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

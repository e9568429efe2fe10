package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"AutoHoldem/config"
	"AutoHoldem/internal/auth"
	"AutoHoldem/internal/game/manager"
	"AutoHoldem/internal/handstore"
	"AutoHoldem/internal/matchmaker"
	"AutoHoldem/internal/middleware"
	"AutoHoldem/internal/storage"
	"AutoHoldem/internal/utils"
	"AutoHoldem/internal/websocket"
)

func main() {
	utils.Init()

	path := os.Getenv("HOLDEM_CONFIG")
	if path == "" {
		path = "config/config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		utils.Log.Fatal("config load failed", "err", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	//-------------------------------------------------------
	// 1. 初始化 Redis（memory 模式下单进程运行，不连 Redis）
	//-------------------------------------------------------
	var rdb *redis.Client
	if cfg.Store.Backend != "memory" {
		rdb, err = storage.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			utils.Log.Fatal("redis init failed", "err", err)
		}
		defer rdb.Close()
	}

	//-------------------------------------------------------
	// 2. 手牌状态存储
	//-------------------------------------------------------
	store, err := openStore(ctx, cfg, rdb)
	if err != nil {
		utils.Log.Fatal("hand store init failed", "backend", cfg.Store.Backend, "err", err)
	}

	//-------------------------------------------------------
	// 3. 初始化 Hub（必须最先启动）
	//-------------------------------------------------------
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Close()

	//-------------------------------------------------------
	// 4. GameManager + 诊断日志
	//-------------------------------------------------------
	gameMgr := manager.NewGameManager(cfg, store, hub, utils.NewDiagnostics(utils.Log))
	hub.OnIncoming = gameMgr.HandlePlayerMessage

	//-------------------------------------------------------
	// 5. 匹配系统：真人够数后补机器人开桌
	//-------------------------------------------------------
	var repo matchmaker.Repo = matchmaker.NewMemoryRepo()
	var nonces auth.NonceStore = auth.NewMemoryNonceStore(5 * time.Minute)
	if rdb != nil {
		repo = matchmaker.NewRedisRepo(rdb)
		nonces = auth.NewRedisNonceStore(rdb, 5*time.Minute)
	}
	svc := matchmaker.NewService(repo, cfg.Matchmaking.QueueTTLSeconds, hub, matchmaker.Seating{
		MinHumans:   cfg.Table.MinHumans,
		BotsEnabled: cfg.Bots.Enabled,
		MaxBots:     cfg.Bots.MaxPerTable,
	})
	gameMgr.Releaser = svc

	// 成桌回调：RoomReady
	svc.OnRoomReady = func(room *matchmaker.Room) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := gameMgr.StartRoom(ctx, room); err != nil {
			utils.Log.Error("start room failed", "room", room.ID, "err", err)
		}
	}

	//-------------------------------------------------------
	// 6. Gin + CORS
	//-------------------------------------------------------
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": cfg.Store.Backend})
	})

	secret := []byte(cfg.JWT.Secret)
	auth.NewHandler(nonces, secret, cfg.JWT.TTL).RegisterRoutes(r.Group("/auth"))

	authed := r.Group("/", middleware.JwtAuthMiddleware(secret))
	{
		authed.GET("/ws", websocket.ServeWS(hub))
		matchmaker.NewHandler(svc).RegisterRoutes(authed.Group("/match"))
		manager.NewHandler(gameMgr).RegisterRoutes(authed.Group("/tables"))
	}

	//-------------------------------------------------------
	// 7. 启动服务器
	//-------------------------------------------------------
	utils.Log.Info("server running", "port", cfg.Server.Port, "store", cfg.Store.Backend)
	if err := r.Run(cfg.Server.Port); err != nil {
		utils.Log.Fatal("server stopped", "err", err)
	}
}

func openStore(ctx context.Context, cfg config.Config, rdb *redis.Client) (handstore.Store, error) {
	switch cfg.Store.Backend {
	case "redis":
		return handstore.NewRedisStore(rdb, cfg.Store.StateTTL), nil
	case "postgres", "sqlite":
		db, err := storage.OpenDatabase(ctx, cfg.Store.Backend, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		if err := handstore.Migrate(ctx, db); err != nil {
			return nil, err
		}
		dialect := handstore.DialectPostgres
		if cfg.Store.Backend == "sqlite" {
			dialect = handstore.DialectSQLite
		}
		return handstore.NewSQLStore(db, dialect), nil
	default:
		return handstore.NewMemoryStore(), nil
	}
}

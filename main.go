package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"walet/api"
	"walet/config"
	"walet/database"
	"walet/middleware"
	"walet/router"
	"walet/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

// @title 项目经费管理 API
// @version 1.0
// @description 项目经费管理系统 API：项目资金池、成员额度、消费记录、资金申请与成员邀请
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8080 或 :8080")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		log.Println("walet v1.0.0")
		return
	}

	// .env 中的变量可覆盖配置（WALET_ 前缀）
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用系统环境变量")
	}

	// 加载配置（内置配置 + 可选的外部配置覆盖）
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 命令行参数覆盖端口配置
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		log.Printf("命令行指定端口: %s", port)
	}

	config.PrintConfig()

	if err := database.Init(cfg); err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}

	middleware.InitJWT(cfg)

	notifier, err := service.NewNotifier(cfg)
	if err != nil {
		log.Fatalf("初始化通知服务失败: %v", err)
	}

	ledger := service.NewLedger(database.DB, cfg, notifier)

	hub := api.NewHub()
	defer hub.Close()
	ledger.SetPublisher(hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 分析结果缓存，未配置 Redis 时不缓存
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("警告: 无法连接 Redis %s，分析缓存已禁用: %v", cfg.Redis.Addr, err)
			rdb.Close()
		} else {
			defer rdb.Close()
			ledger.SetCache(service.NewRedisAnalyticsCache(rdb, cfg.Redis.AnalyticsTTL))
			log.Printf("分析缓存已启用: %s", cfg.Redis.Addr)
		}
	}

	// 发件箱重试投递失败的通知
	go ledger.Outbox().Run(ctx, cfg.Notification.RetryInterval)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	r := router.SetupRouter(cfg, router.Deps{
		Ledger:   ledger,
		Notifier: notifier,
		Hub:      hub,
		Logger:   logger,
	})

	log.Printf("==========================================")
	log.Printf("  walet 已启动")
	log.Printf("==========================================")
	log.Printf("  Swagger:  http://localhost%s/swagger/index.html", cfg.Server.Port)
	log.Printf("  API接口:  http://localhost%s/api/v1/", cfg.Server.Port)
	log.Printf("==========================================")

	ln, err := net.Listen("tcp", cfg.Server.Port)
	if err != nil {
		log.Fatalf("服务器启动失败: %v", err)
	}
	srv := &http.Server{
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 第一次信号触发优雅关闭，之后恢复默认行为，再次 Ctrl-C 直接退出
	context.AfterFunc(ctx, stop)
	if err := runServer(ctx, srv, ln, shutdownTimeout); err != nil {
		log.Fatalf("服务器运行失败: %v", err)
	}
	log.Println("服务器已关闭")
}

const shutdownTimeout = 10 * time.Second

// runServer 在 ln 上提供服务，ctx 取消后等待进行中的请求，最多 timeout
func runServer(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("正在关闭服务器...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

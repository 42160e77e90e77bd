package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/taoyao-code/radar-server/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/radar-server/internal/config"
	"github.com/taoyao-code/radar-server/internal/logging"
)

func main() {
	// 1) 加载配置（可用命令行第一个参数指定路径）
	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := cfgpkg.Load(path)
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// 3) 启动
	if err := bootstrap.Run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

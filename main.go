// @title BaseBuilder 后端 API
// @version 1.0
// @description 探究式学习平台的自适应间隔复习引擎。

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"basebuilder_backend/internal/app"
	"basebuilder_backend/internal/config"
	"basebuilder_backend/pkg/logger"
	"log"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	application.Run()
}

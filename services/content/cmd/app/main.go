package main

import (
	"content-engine/pkg/config"
	app "content-engine/services/content/internal/app"

	_ "content-engine/services/content/docs" // Swagger docs
)

// @title           Content Engine API
// @version         1.0
// @description     Turns raw ideas into posts and platform derivatives, and schedules their publication
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey ClientID
// @in header
// @name X-Client-ID
// @description Identifies the caller for rate limiting.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		panic(err)
	}

	if err := application.Run(); err != nil {
		panic(err)
	}

	application.Wait()

	if err := application.Shutdown(); err != nil {
		panic(err)
	}
}

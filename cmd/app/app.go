package main

import (
	"github.com/bodhirag/catalog-backend/internal/app"
	"github.com/joho/godotenv"
)

// @title						Catalog Backend API
// @version					1.0
// @description				Каталог продуктов с семантическим поиском
// @BasePath					/api/v1
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	// .env опционален: в контейнере переменные приходят из окружения
	_ = godotenv.Load()

	app.Run()
}

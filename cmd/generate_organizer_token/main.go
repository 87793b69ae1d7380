package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Seth647/rally-watchdog/internal/utils"

	"github.com/joho/godotenv"
)

// Утилита для выпуска токена организатора. Токен даёт доступ
// к панели модерации жалоб (/api/reports, /api/warnings, /api/drivers).
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Файл .env не найден, используем переменные окружения")
	}

	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET не задан")
	}

	token, err := utils.GenerateAdminJWT()
	if err != nil {
		log.Fatalf("Ошибка генерации токена организатора: %v", err)
	}

	fmt.Printf("Organizer token: %s\n", token)
}

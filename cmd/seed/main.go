package main

import (
	"log"
	"os"
	"time"

	"ai-assistant-be/internal/model"
	"ai-assistant-be/pkg/database"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo user with a small conversation so the frontend has something
// to render on a fresh database. Safe to run repeatedly.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Seeding demo data...")

	var existing model.User
	if err := db.Where("email = ?", "demo@example.com").First(&existing).Error; err == nil {
		color.Yellow("Demo user already exists, skipping.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Error: Failed to hash password: %v", err)
	}
	hashStr := string(hash)

	user := model.User{
		Id:            uuid.New(),
		Email:         "demo@example.com",
		PasswordHash:  &hashStr,
		FullName:      "Demo User",
		Role:          "user",
		Status:        "active",
		EmailVerified: true,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("Error: Failed to create demo user: %v", err)
	}
	color.Green("Created user demo@example.com (password: demo1234)")

	now := time.Now()
	session := model.ChatSession{
		Id:          uuid.New(),
		UserId:      user.Id,
		Title:       "Trip planning for Kyoto",
		TitleLocked: true,
		CreatedAt:   now.Add(-time.Hour),
		UpdatedAt:   now,
	}
	if err := db.Create(&session).Error; err != nil {
		log.Fatalf("Error: Failed to create demo session: %v", err)
	}

	messages := []model.ChatMessage{
		{
			Id:            uuid.New(),
			ChatSessionId: session.Id,
			Role:          "user",
			Content:       "Help me plan a 3 day trip to Kyoto in autumn.",
			Seq:           1,
			CreatedAt:     now.Add(-time.Hour),
		},
		{
			Id:            uuid.New(),
			ChatSessionId: session.Id,
			Role:          "assistant",
			Content:       "Autumn is a great time for Kyoto. Day 1: Fushimi Inari early, then Tofuku-ji for the maple leaves. Day 2: Arashiyama bamboo grove and the temples along the river. Day 3: Kiyomizu-dera and the Higashiyama district. Want restaurant suggestions too?",
			Seq:           2,
			CreatedAt:     now,
		},
	}
	for _, m := range messages {
		if err := db.Create(&m).Error; err != nil {
			log.Fatalf("Error: Failed to create demo message: %v", err)
		}
	}

	color.Green("Created demo session with %d messages", len(messages))
	color.Cyan("Done.")
}

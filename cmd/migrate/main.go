package main

import (
	"log"
	"os"

	"ai-companion-be/internal/model"
	"ai-companion-be/pkg/database"

	"github.com/joho/godotenv"
)

func main() {
	// 1. Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting GORM migration...")

	// 3. Extensions GORM AutoMigrate doesn't handle
	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	}
	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate all models
	if err := db.AutoMigrate(&model.Chat{}, &model.Message{}); err != nil {
		log.Fatal("Error: AutoMigrate failed:", err)
	}

	// 5. Partial unique index: (owner_id, name) unique among live chats only,
	// so a deleted chat's name can be reused.
	uniqueSQL := `CREATE UNIQUE INDEX IF NOT EXISTS idx_chats_owner_name_live
		ON chats (owner_id, name) WHERE deleted = false;`
	if err := db.Exec(uniqueSQL).Error; err != nil {
		log.Fatal("Error: Failed to create unique chat index:", err)
	}

	log.Println("Migration completed successfully")
}

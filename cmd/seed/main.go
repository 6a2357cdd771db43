package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/notely-app/notely-api/config"
)

// Seeds a verified demo user plus a couple of notes for local development.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "demo@notely.local"
	name := "Demo User"

	var id string
	err = db.QueryRow(`
		INSERT INTO users (email, name, is_verified)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (email) DO UPDATE SET name=EXCLUDED.name, is_verified=TRUE
		RETURNING id
	`, email, name).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s name=%s\n", id, email, name)

	notes := []struct {
		title, content string
	}{
		{"Welcome to Notely", "This is your first note. Edit or delete it whenever you like."},
		{"Shopping list", "Milk, eggs, bread, coffee."},
	}
	for _, n := range notes {
		var noteID string
		err = db.QueryRow(`
			INSERT INTO notes (user_id, title, content)
			VALUES ($1, $2, $3)
			RETURNING id
		`, id, n.title, n.content).Scan(&noteID)
		if err != nil {
			log.Fatalf("failed to seed note: %v", err)
		}
		fmt.Printf("seeded note: id=%s title=%q\n", noteID, n.title)
	}
}

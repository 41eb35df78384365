package main

import (
	"flag"
	"fmt"
	"log"

	"picturebridge/internal/repository/sqlite"
	"picturebridge/internal/service/history"
)

func main() {
	webRoot := flag.String("root", "public", "Directory containing pictures")
	dbPath := flag.String("db", "data/captures.db", "Database path")
	flag.Parse()

	fmt.Printf("Importing pictures from %s into %s\n", *webRoot, *dbPath)

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	repo := sqlite.NewCaptureRepository(db)

	stats, err := history.Import(*webRoot, repo)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("Imported %d pictures\n", stats.Imported)
	if stats.Existing > 0 {
		fmt.Printf("%d already in history\n", stats.Existing)
	}
	if stats.Skipped > 0 {
		fmt.Printf("Skipped %d empty or unreadable files\n", stats.Skipped)
	}

	total, err := repo.GetTotalCount()
	if err == nil {
		fmt.Printf("History now holds %d captures\n", total)
	}
}

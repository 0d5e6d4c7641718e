package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vmnguyen/readnext/internal/api"
	"github.com/vmnguyen/readnext/internal/catalog"
	"github.com/vmnguyen/readnext/internal/cf"
	"github.com/vmnguyen/readnext/internal/config"
	"github.com/vmnguyen/readnext/internal/engine"
	"github.com/vmnguyen/readnext/internal/history"
	"github.com/vmnguyen/readnext/internal/semantic"
	"github.com/vmnguyen/readnext/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	ingestFlag := flag.Bool("ingest", false, "Rebuild the book embedding store from the catalog and exit")
	loadRatingsFlag := flag.Bool("load-ratings", false, "Import the ratings CSV into the database before starting")
	flag.Parse()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// The catalog is the one thing nothing can run without.
	cat, err := catalog.LoadCSV(config.AppConfig.CatalogCSV)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	log.Printf("Loaded %d books from %s (%d records dropped).", cat.Len(), config.AppConfig.CatalogCSV, cat.Dropped())

	// Initialize embedding client
	embedder, err := semantic.NewGeminiEmbedder(context.Background(), config.AppConfig.GeminiAPIKey)
	if err != nil {
		log.Fatalf("Failed to initialize embedding client: %v", err)
	}
	defer embedder.Close()

	// Handle embedding ingestion if flag is set
	if *ingestFlag {
		log.Println("Starting embedding ingestion...")
		count, err := dbStore.IngestBookEmbeddings(cat.All(), func(text string) ([]float32, error) {
			return embedder.Embed(context.Background(), text)
		})
		if err != nil {
			log.Fatalf("Embedding ingestion failed: %v", err)
		}
		log.Printf("Embedding ingestion complete. Ingested %d documents. Exiting.", count)
		os.Exit(0)
	}

	// Ratings: optionally imported from CSV, always bulk-read from the DB.
	if *loadRatingsFlag {
		count, err := dbStore.ImportRatingsCSV(config.AppConfig.RatingsCSV)
		if err != nil {
			log.Fatalf("Ratings import failed: %v", err)
		}
		log.Printf("Imported %d ratings from %s.", count, config.AppConfig.RatingsCSV)
	}
	ratings, err := dbStore.GetAllRatings()
	if err != nil {
		log.Fatalf("Failed to read ratings: %v", err)
	}
	matrix := cf.BuildMatrix(ratings)
	if matrix == nil {
		log.Println("Warning: no usable ratings loaded. Collaborative filtering is unavailable.")
	} else {
		log.Printf("Rating matrix built: %d items x %d users.", matrix.Items(), matrix.Users())
	}
	finder := cf.NewFinder(matrix)

	// Semantic index over the stored embeddings.
	docs, err := dbStore.GetAllBookEmbeddings()
	if err != nil {
		log.Fatalf("Failed to read book embeddings: %v", err)
	}
	index := semantic.NewIndex(docs, embedder)

	histLog := history.NewLog(dbStore)
	searchTimeout := time.Duration(config.AppConfig.SearchTimeoutSeconds) * time.Second
	recEngine := engine.NewEngine(cat, index, finder, histLog, searchTimeout, nil)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(recEngine, cat, histLog, dbStore)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // embedding calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}

// scripts/seed/main.go
//
// Loads the dev-data fixtures into the configured database, or wipes the
// collections it seeds. Run from the repository root:
//
//	go run ./scripts/seed --create
//	go run ./scripts/seed --delete
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"go-tours/models"
	"go-tours/utils"
)

func main() {
	create := flag.Bool("create", false, "load the dev-data fixtures")
	remove := flag.Bool("delete", false, "delete all seeded documents")
	dataDir := flag.String("data", "dev-data", "directory holding the fixture files")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := utils.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := utils.NewLogger(cfg.Env)

	if *create == *remove {
		log.Fatal().Msg("pass exactly one of --create or --delete")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := utils.ConnectDB(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.DatabaseName)

	if *remove {
		for _, name := range []string{"tours", "users", "reviews", "bookings"} {
			if _, err := db.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
				log.Fatal().Err(err).Str("collection", name).Msg("delete failed")
			}
		}
		log.Info().Msg("data successfully deleted")
		return
	}

	if err := models.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("index creation failed")
	}

	tours, err := loadFixtures[models.Tour](*dataDir + "/tours.json")
	if err != nil {
		log.Fatal().Err(err).Msg("tours fixture")
	}
	users, err := loadFixtures[models.User](*dataDir + "/users.json")
	if err != nil {
		log.Fatal().Err(err).Msg("users fixture")
	}
	reviews, err := loadFixtures[models.Review](*dataDir + "/reviews.json")
	if err != nil {
		log.Fatal().Err(err).Msg("reviews fixture")
	}

	// Fixture passwords are stored in the clear and hashed on the way in.
	for i := range users {
		users[i].BeforeSave()
		if err := users[i].SetPassword(users[i].Password); err != nil {
			log.Fatal().Err(err).Str("email", users[i].Email).Msg("password hash failed")
		}
	}
	for i := range tours {
		tours[i].BeforeSave()
	}
	for i := range reviews {
		reviews[i].BeforeSave()
	}

	if err := insertAll(ctx, db.Collection("tours"), tours); err != nil {
		log.Fatal().Err(err).Msg("tours insert failed")
	}
	if err := insertAll(ctx, db.Collection("users"), users); err != nil {
		log.Fatal().Err(err).Msg("users insert failed")
	}
	if err := insertAll(ctx, db.Collection("reviews"), reviews); err != nil {
		log.Fatal().Err(err).Msg("reviews insert failed")
	}

	log.Info().
		Int("tours", len(tours)).
		Int("users", len(users)).
		Int("reviews", len(reviews)).
		Msg("data successfully loaded")
}

// loadFixtures parses a fixture file. The files use MongoDB extended JSON
// so object ids and dates survive the round trip, and each element is
// decoded on its own because extended JSON decoding expects a document.
func loadFixtures[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make([]T, 0, len(raw))
	for _, doc := range raw {
		var item T
		if err := bson.UnmarshalExtJSON(doc, false, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func insertAll[T any](ctx context.Context, coll *mongo.Collection, docs []T) error {
	if len(docs) == 0 {
		return nil
	}
	payload := make([]interface{}, len(docs))
	for i := range docs {
		payload[i] = docs[i]
	}
	_, err := coll.InsertMany(ctx, payload)
	return err
}

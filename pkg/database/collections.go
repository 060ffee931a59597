package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createIndexes() {
	// Dated service journeys are looked up by their upstream identifier on
	// every alert expansion, so that field has to be indexed
	datedServiceJourneysCollection := GetCollection("dated_service_journeys")
	index := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "datedservicejourneyid", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "tripid", Value: 1}},
		},
	}

	opts := options.CreateIndexes()
	_, err := datedServiceJourneysCollection.Indexes().CreateMany(context.Background(), index, opts)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create dated service journey indexes")
	}
}

package livestate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/transitlive/transitlive/pkg/database"
	"github.com/transitlive/transitlive/pkg/redis_client"
	"go.mongodb.org/mongo-driver/bson"
)

// DatedJourney resolves a dated-service-journey reference to the scheduled
// trip it runs.
type DatedJourney struct {
	DatedServiceJourneyID string `bson:"datedservicejourneyid" json:"datedServiceJourneyId"`
	TripID                string `bson:"tripid" json:"tripId"`
	OperatingDate         string `bson:"operatingdate" json:"operatingDate"` // YYYYMMDD
}

// JourneyLookup is the external collaborator the alert mapper uses to turn
// dated-service-journey refs into trip descriptors. Failures are "no
// additional trip descriptor", never errors.
type JourneyLookup interface {
	Lookup(ctx context.Context, datedServiceJourneyID string) (*DatedJourney, bool)
}

// MongoJourneyLookup reads the dated_service_journeys reference collection
// with a redis cache in front, so repeated alert rebuilds don't hammer the
// database for the same refs.
type MongoJourneyLookup struct {
	cache *cache.Cache[string]
}

func NewMongoJourneyLookup() *MongoJourneyLookup {
	redisStore := redisstore.NewRedis(redis_client.Client, store.WithExpiration(90*time.Minute))

	return &MongoJourneyLookup{
		cache: cache.New[string](redisStore),
	}
}

func (l *MongoJourneyLookup) Lookup(ctx context.Context, datedServiceJourneyID string) (*DatedJourney, bool) {
	cacheKey := "datedservicejourney/" + datedServiceJourneyID

	cached, _ := l.cache.Get(ctx, cacheKey)

	if cached == "N/A" {
		return nil, false
	}

	if cached != "" {
		var journey DatedJourney
		if err := json.Unmarshal([]byte(cached), &journey); err == nil {
			return &journey, true
		}
	}

	collection := database.GetCollection("dated_service_journeys")

	var journey DatedJourney
	err := collection.FindOne(ctx, bson.M{"datedservicejourneyid": datedServiceJourneyID}).Decode(&journey)
	if err != nil {
		// Cache the miss so we dont keep rechecking refs we cant resolve
		l.cache.Set(ctx, cacheKey, "N/A")

		return nil, false
	}

	journeyJson, _ := json.Marshal(journey)
	l.cache.Set(ctx, cacheKey, string(journeyJson))

	return &journey, true
}

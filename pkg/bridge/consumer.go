package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
	"github.com/transitlive/transitlive/pkg/redis_client"
	"github.com/transitlive/transitlive/pkg/siri"
)

const numConsumers = 2
const consumerBatchSize = 50

const deliveryQueueName = "delivery-queue"

// StartConsumers runs the message-bus ingest path: upstream producers push
// JSON-encoded delivery batches onto the queue and the consumers feed them
// into the bridge.
func StartConsumers(bridge *Bridge) error {
	log.Info().Msg("Starting delivery batch consumers")

	queue, err := redis_client.QueueConnection.OpenQueue(deliveryQueueName)
	if err != nil {
		return err
	}

	if err := queue.StartConsuming(numConsumers*consumerBatchSize, 1*time.Second); err != nil {
		return err
	}

	for i := 0; i < numConsumers; i++ {
		if _, err := queue.AddBatchConsumer(fmt.Sprintf("%s-%d", deliveryQueueName, i), consumerBatchSize, 2*time.Second, NewBatchConsumer(bridge, i)); err != nil {
			return err
		}
	}

	return nil
}

type BatchConsumer struct {
	bridge *Bridge
	id     int
}

func NewBatchConsumer(bridge *Bridge, id int) *BatchConsumer {
	return &BatchConsumer{bridge: bridge, id: id}
}

func (consumer *BatchConsumer) Consume(batch rmq.Deliveries) {
	for _, payload := range batch.Payloads() {
		var deliveryBatch siri.DeliveryBatch
		if err := json.Unmarshal([]byte(payload), &deliveryBatch); err != nil {
			log.Error().Err(err).Msg("Failed to decode delivery batch payload")
			continue
		}

		consumer.bridge.Ingest(&deliveryBatch)
	}

	if ackErrors := batch.Ack(); len(ackErrors) > 0 {
		for _, err := range ackErrors {
			log.Error().Err(err).Msg("Failed to ack delivery batch")
		}
	}
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/bookavail/libs/config"
	"github.com/md-rashed-zaman/bookavail/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

// order-event-sim publishes a commerce order event the way the storefront webhook bridge
// does, for exercising the availability service locally.
func main() {
	var (
		brokers    = flag.String("brokers", config.String("KAFKA_BROKERS", "localhost:9092"), "comma separated kafka brokers")
		kind       = flag.String("type", "created", "created or cancelled")
		orderID    = flag.String("order-id", fmt.Sprintf("%d", time.Now().Unix()), "order id")
		customerID = flag.String("customer-id", "", "customer whose calendar is booked")
		from       = flag.String("from", "", "booking start, RFC 3339")
		minutes    = flag.Int("minutes", 60, "booking length in minutes")
	)
	flag.Parse()

	topic := config.String("KAFKA_ORDER_TOPIC", "commerce.order.created.v1")
	eventType := "order.created"
	payload := map[string]any{"id": *orderID}

	switch *kind {
	case "created":
		if *customerID == "" || *from == "" {
			fatal("customer-id and from are required for created events")
		}
		start, err := time.Parse(time.RFC3339, *from)
		if err != nil {
			fatal("from: " + err.Error())
		}
		payload["line_items"] = []map[string]any{{
			"id":    1,
			"title": "Booking",
			"properties": []map[string]any{
				{"name": "_customerId", "value": *customerID},
				{"name": "_from", "value": start.Format(time.RFC3339)},
				{"name": "_to", "value": start.Add(time.Duration(*minutes) * time.Minute).Format(time.RFC3339)},
			},
		}}
	case "cancelled":
		topic = config.String("KAFKA_ORDER_CANCELLED_TOPIC", "commerce.order.cancelled.v1")
		eventType = "order.cancelled"
		payload["cancelled_at"] = time.Now().UTC().Format(time.RFC3339)
	default:
		fatal("type must be created or cancelled")
	}

	value, err := json.Marshal(payload)
	if err != nil {
		fatal(err.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	w := &kafka.Writer{
		Addr:                   kafka.TCP(kafkax.SplitBrokers(*brokers)...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	defer func() { _ = w.Close() }()

	eventID := uuid.NewString()
	msg := kafka.Message{
		Key:   []byte(*orderID),
		Value: value,
		Headers: kafkax.InjectTraceHeaders(ctx, []kafka.Header{
			{Key: "event_id", Value: []byte(eventID)},
			{Key: "event_type", Value: []byte(eventType)},
		}),
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		fatal(err.Error())
	}
	fmt.Printf("published %s event %s for order %s to %s\n", eventType, eventID, *orderID, topic)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

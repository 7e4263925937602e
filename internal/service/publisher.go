// Package service provides functions to publish domain events to RabbitMQ.
// Errors are logged and returned to allow callers to ignore failures without
// interrupting the main request flow.
package service

import (
    "context"
    "encoding/json"
    "log"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/avasile/ticketbooth/internal/queue"
)

// PublishReservationEvent publishes a ReservationEvent to the
// reservation.events queue. The function never panics; any error is logged
// and returned so the caller can choose to ignore it. Messages are marked
// persistent so they survive broker restarts.
func PublishReservationEvent(ctx context.Context, event queue.ReservationEvent) error {
    conn, err := amqp.Dial(queue.BrokerURL())
    if err != nil {
        log.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent).
    if _, err := ch.QueueDeclare(
        queue.EventsQueueName, // name
        true,                  // durable
        false,                 // autoDelete
        false,                 // exclusive
        false,                 // noWait
        nil,                   // args
    ); err != nil {
        log.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",                    // default exchange
        queue.EventsQueueName, // routing key = queue name
        false,                 // mandatory
        false,                 // immediate
        pub,
    ); err != nil {
        log.Printf("rabbitmq: publish failed: %v", err)
        return err
    }

    return nil
}

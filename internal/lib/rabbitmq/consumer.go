package rabbitmq

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"
)

// ConsumerMessage подписывается на очередь и обрабатывает сообщения переданной
// функцией. Обработка идёт в отдельной горутине до отмены контекста;
// сообщение подтверждается только после успешной обработки.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, handler func(body []byte) error) error {
	const op = "rabbitmq.ConsumerMessage"

	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if err := handler(msg.Body); err != nil {
					_ = msg.Nack(false, true)
					continue
				}
				_ = msg.Ack(false)
			}
		}
	}()
	return nil
}

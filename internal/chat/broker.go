package chat

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Envelope é o que trafega entre instâncias. Sem destinatário vai para todos.
type Envelope struct {
	Para    *uint           `json:"to,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

type Broker interface {
	Publicar(ctx context.Context, env Envelope) error
	// Assinar bloqueia até o contexto acabar, chamando fn para cada envelope.
	Assinar(ctx context.Context, fn func(Envelope)) error
}

type RedisBroker struct {
	Client *redis.Client
	Canal  string
	Log    *zap.Logger
}

func NovoRedisBroker(client *redis.Client, log *zap.Logger) *RedisBroker {
	return &RedisBroker{Client: client, Canal: "chat:eventos", Log: log}
}

func (b *RedisBroker) Publicar(ctx context.Context, env Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.Client.Publish(ctx, b.Canal, raw).Err()
}

func (b *RedisBroker) Assinar(ctx context.Context, fn func(Envelope)) error {
	sub := b.Client.Subscribe(ctx, b.Canal)
	defer sub.Close()

	// garante que a assinatura está ativa antes de consumir
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.Log.Warn("envelope de chat inválido", zap.Error(err))
				continue
			}
			fn(env)
		}
	}
}

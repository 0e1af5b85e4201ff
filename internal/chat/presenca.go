package chat

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Presenca conta conexões por usuário. Um usuário fica online na primeira
// conexão e offline quando a última fecha.
type Presenca interface {
	Conectar(ctx context.Context, userID uint, connID string) (primeira bool, err error)
	Desconectar(ctx context.Context, userID uint, connID string) (ultima bool, err error)
	Online(ctx context.Context) ([]uint, error)
}

// PresencaMemoria serve para uma única instância.
type PresencaMemoria struct {
	mu       sync.Mutex
	conexoes map[uint]map[string]struct{}
}

func NovaPresencaMemoria() *PresencaMemoria {
	return &PresencaMemoria{conexoes: map[uint]map[string]struct{}{}}
}

func (p *PresencaMemoria) Conectar(_ context.Context, userID uint, connID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.conexoes[userID]
	if !ok {
		set = map[string]struct{}{}
		p.conexoes[userID] = set
	}
	set[connID] = struct{}{}
	return len(set) == 1, nil
}

func (p *PresencaMemoria) Desconectar(_ context.Context, userID uint, connID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	set, ok := p.conexoes[userID]
	if !ok {
		return false, nil
	}
	if _, ok := set[connID]; !ok {
		return false, nil
	}
	delete(set, connID)
	if len(set) > 0 {
		return false, nil
	}
	delete(p.conexoes, userID)
	return true, nil
}

func (p *PresencaMemoria) Online(_ context.Context) ([]uint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]uint, 0, len(p.conexoes))
	for id := range p.conexoes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

const chaveOnline = "chat:online"

func chaveConexoes(userID uint) string { return fmt.Sprintf("chat:conns:%d", userID) }

// Remove a conexão e, se era a última, tira o usuário do conjunto online.
var scriptDesconectar = redis.NewScript(`
local removida = redis.call('SREM', KEYS[1], ARGV[1])
if removida == 0 then return 0 end
if redis.call('SCARD', KEYS[1]) == 0 then
	redis.call('SREM', KEYS[2], ARGV[2])
	return 1
end
return 0
`)

// PresencaRedis compartilha a presença entre instâncias.
// TODO: conexões de uma instância que caiu nunca saem dos conjuntos; falta heartbeat por instância com TTL.
type PresencaRedis struct {
	Client *redis.Client
}

func (p *PresencaRedis) Conectar(ctx context.Context, userID uint, connID string) (bool, error) {
	var card *redis.IntCmd
	_, err := p.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, chaveConexoes(userID), connID)
		card = pipe.SCard(ctx, chaveConexoes(userID))
		pipe.SAdd(ctx, chaveOnline, userID)
		return nil
	})
	if err != nil {
		return false, err
	}
	return card.Val() == 1, nil
}

func (p *PresencaRedis) Desconectar(ctx context.Context, userID uint, connID string) (bool, error) {
	n, err := scriptDesconectar.Run(ctx, p.Client, []string{chaveConexoes(userID), chaveOnline}, connID, userID).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (p *PresencaRedis) Online(ctx context.Context) ([]uint, error) {
	membros, err := p.Client.SMembers(ctx, chaveOnline).Result()
	if err != nil {
		return nil, err
	}
	out := make([]uint, 0, len(membros))
	for _, m := range membros {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, uint(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

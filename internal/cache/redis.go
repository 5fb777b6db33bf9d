package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Musanse/shiteni-sub006/internal/config"
)

type Client struct {
	Cli *redis.Client
}

func NewRedis(cfg *config.Config) (*Client, error) {
	r := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := r.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Client{Cli: r}, nil
}

func (c *Client) Close() error { return c.Cli.Close() }

// SetPresence flags a party as having at least one live viewer connected.
func (c *Client) SetPresence(ctx context.Context, partyID string, online bool) error {
	key := "presence:" + partyID
	val := "0"
	if online {
		val = "1"
	}
	return c.Cli.Set(ctx, key, val, 0).Err()
}

func (c *Client) GetPresence(ctx context.Context, partyID string) (bool, error) {
	s, err := c.Cli.Get(ctx, "presence:"+partyID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s == "1", nil
}

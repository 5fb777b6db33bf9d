package config

import (
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Env       string `mapstructure:"env"`
	Port      int    `mapstructure:"port"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type MongoConfig struct {
	URI                string `mapstructure:"uri"`
	Database           string `mapstructure:"database"`
	MessagesCollection string `mapstructure:"messages_collection"`
	AccountsCollection string `mapstructure:"accounts_collection"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers          []string `mapstructure:"brokers"`
	TopicMessageSent string   `mapstructure:"topic_message_sent"`
}

type Config struct {
	App   AppConfig   `mapstructure:"app"`
	Mongo MongoConfig `mapstructure:"mongodb"`
	Redis RedisConfig `mapstructure:"redis"`
	Kafka KafkaConfig `mapstructure:"kafka"`

	// derived values
	RequestTimeout  time.Duration
	CatchupInterval time.Duration
	ShutdownTimeout time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	// sensible defaults
	if c.App.Port == 0 {
		c.App.Port = 8081
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = "mongodb://localhost:27017"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "shiteni"
	}
	if c.Mongo.MessagesCollection == "" {
		c.Mongo.MessagesCollection = "messages"
	}
	if c.Mongo.AccountsCollection == "" {
		c.Mongo.AccountsCollection = "accounts"
	}
	if c.Kafka.TopicMessageSent == "" {
		c.Kafka.TopicMessageSent = "message.sent"
	}
	c.RequestTimeout = 10 * time.Second
	c.CatchupInterval = 3 * time.Second
	c.ShutdownTimeout = 10 * time.Second
	return &c, nil
}

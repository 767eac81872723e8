package chatclient

import "github.com/ilyakaznacheev/cleanenv"

// Config holds the endpoints the client talks to. Everything comes
// from the environment so the binary needs no config file.
type Config struct {
	ApiURL string `env:"CHATCLI_API_URL" env-default:"http://localhost:9200"`
	WsURL  string `env:"CHATCLI_WS_URL" env-default:"ws://localhost:9200"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

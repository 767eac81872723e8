package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env    string `yaml:"env" env-default:"local"`
	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env-default:"9200"`
	} `yaml:"listen"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:""`
		Password string `yaml:"password" env-default:""`
		Database string `yaml:"database" env-default:"supplyhub"`
	} `yaml:"mongo"`
	Auth struct {
		JwtSecret   string `yaml:"jwt_secret" env:"JWT_SECRET" env-default:""`
		ExpireHours int    `yaml:"expire_hours" env-default:"72"`
	} `yaml:"auth"`
	Uploads struct {
		Dir           string `yaml:"dir" env-default:"./uploads"`
		PayloadSecret string `yaml:"payload_secret" env:"UPLOAD_PAYLOAD_SECRET" env-default:""`
		LinkSecret    string `yaml:"link_secret" env:"UPLOAD_LINK_SECRET" env-default:""`
		LinkTTLHours  int    `yaml:"link_ttl_hours" env-default:"24"`
	} `yaml:"uploads"`
	Smtp struct {
		Enabled  bool   `yaml:"enabled" env-default:"false"`
		Host     string `yaml:"host" env-default:""`
		Port     int    `yaml:"port" env-default:"587"`
		User     string `yaml:"user" env-default:""`
		Password string `yaml:"password" env-default:""`
		From     string `yaml:"from" env-default:"noreply@supplyhub.local"`
	} `yaml:"smtp"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("%s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}

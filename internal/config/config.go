package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type MySqlConfig struct {
	HostName string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"3306"`
	UserName string `yaml:"user" env-default:"clubq"`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"clubq"`
	Prefix   string `yaml:"prefix" env-default:"cq_"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"localhost"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"clubq"`
}

type InvitesConfig struct {
	CodeLength        int `yaml:"code_length" env-default:"8"`
	DefaultUsageLimit int `yaml:"default_usage_limit" env-default:"1"`
	DefaultTTLHours   int `yaml:"default_ttl_hours" env-default:"720"`
}

type AccountsConfig struct {
	ReserveAttempts int `yaml:"reserve_attempts" env-default:"5"`
}

type Config struct {
	Listen   Listen         `yaml:"listen"`
	MySql    MySqlConfig    `yaml:"mysql"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Invites  InvitesConfig  `yaml:"invites"`
	Accounts AccountsConfig `yaml:"accounts"`
	Env      string         `yaml:"env" env-default:"local"`
	Location string         `yaml:"location" env-default:"UTC"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}

package models

import "time"

type Config struct {
	Database DatabaseConfig
	Admin    AdminConfig
	Poller   PollerConfig
	LNbits   LNbitsConfig
}

type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

type AdminConfig struct {
	ListenAddr     string
	RequestTimeout time.Duration
}

type PollerConfig struct {
	Schedule       string // cron spec for the scheduled poll
	FallbackWindow time.Duration
	DialTimeout    time.Duration
	QueryTimeout   time.Duration
}

type LNbitsConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

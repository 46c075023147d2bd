package app

import (
	"io"
	"time"

	"github.com/swipely/refreshable/src/iam"
)

// App holds the state of the application.
type App struct {
	Config    *Config
	STSClient iam.STSClient
	Output    io.Writer
}

// Config holds application configuration.
type Config struct {
	RoleArn          string
	RoleSessionName  string
	DurationSeconds  int64
	ExternalID       string
	SerialNumber     string
	TokenCode        string
	AdvisoryTimeout  time.Duration
	MandatoryTimeout time.Duration
	ShowIdentity     bool
}

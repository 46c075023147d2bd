// Package ecs fetches temporary credentials from the ECS container metadata
// endpoint. Tasks with a task role expose rotating credentials on a local
// HTTP endpoint; this source turns that endpoint into a creds.Source.
package ecs

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/swipely/refreshable/src/creds"
)

const (
	relativeURIVar      = "AWS_CONTAINER_CREDENTIALS_RELATIVE_URI"
	fullURIVar          = "AWS_CONTAINER_CREDENTIALS_FULL_URI"
	authorizationVar    = "AWS_CONTAINER_AUTHORIZATION_TOKEN"
	defaultEndpointBase = "http://169.254.170.2"
	defaultTimeout      = 10 * time.Second
)

// NewSource resolves the container credential endpoint from the environment
// and creates a creds.Source backed by it.
func NewSource() (creds.Source, error) {
	uri := os.Getenv(fullURIVar)
	if uri == "" {
		uri = os.Getenv(relativeURIVar)
	}
	if uri == "" {
		return nil, fmt.Errorf(
			"%w: neither %s nor %s is set; are you running inside an ECS container?",
			creds.ErrConfiguration, fullURIVar, relativeURIVar,
		)
	}
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		uri = defaultEndpointBase + uri
	}
	return NewSourceForEndpoint(uri, os.Getenv(authorizationVar)), nil
}

// NewSourceForEndpoint creates a creds.Source for an explicit endpoint. The
// token, when non-empty, is sent as a bearer Authorization header.
func NewSourceForEndpoint(endpoint string, token string) creds.Source {
	return &source{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: defaultTimeout},
		logger:   logrus.WithField("prefix", "ecs/source"),
	}
}

func (source *source) Fetch() (*creds.Snapshot, error) {
	request, err := http.NewRequest(http.MethodGet, source.endpoint, nil)
	if err != nil {
		return nil, err
	}
	if source.token != "" {
		request.Header.Set("Authorization", "Bearer "+source.token)
	}

	source.logger.Debug("Fetching container credentials")
	response, err := source.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, response.Body)
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Credential endpoint returned status %d", response.StatusCode)
	}

	var payload metadataCredentials
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("Malformed credential payload: %w", err)
	}
	expiration, err := time.Parse(time.RFC3339, payload.Expiration)
	if err != nil {
		return nil, fmt.Errorf("Malformed credential expiration: %w", err)
	}

	return &creds.Snapshot{
		AccessKeyID:     payload.AccessKeyID,
		SecretAccessKey: payload.SecretAccessKey,
		SessionToken:    payload.Token,
		Expiration:      expiration,
		Identity:        creds.Identity{"RoleArn": payload.RoleArn},
	}, nil
}

// metadataCredentials is the JSON shape served by the metadata endpoint.
type metadataCredentials struct {
	AccessKeyID     string `json:"AccessKeyId"`
	SecretAccessKey string `json:"SecretAccessKey"`
	Token           string `json:"Token"`
	Expiration      string `json:"Expiration"`
	RoleArn         string `json:"RoleArn"`
}

type source struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *logrus.Entry
}

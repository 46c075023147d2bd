package iam

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/sirupsen/logrus"

	"github.com/swipely/refreshable/src/creds"
)

const (
	defaultDurationSeconds = 3600
	sessionNameLength      = 16
)

// NewSource accepts an STSClient and creates a creds.Source which assumes an
// IAM role on every refresh. The seed feeds the generator used for session
// names when Config.RoleSessionName is empty.
func NewSource(client STSClient, seed int64, config Config) (creds.Source, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: STS client is required", creds.ErrConfiguration)
	}
	if config.RoleArn == "" {
		return nil, fmt.Errorf("%w: RoleArn is required", creds.ErrConfiguration)
	}
	if config.TokenProvider != nil {
		if config.SerialNumber == "" {
			return nil, fmt.Errorf(
				"%w: SerialNumber is required when TokenProvider is set",
				creds.ErrConfiguration,
			)
		}
	} else if (config.SerialNumber == "") != (config.TokenCode == "") {
		return nil, fmt.Errorf(
			"%w: SerialNumber and TokenCode must be provided together",
			creds.ErrConfiguration,
		)
	}
	if config.TokenCode != "" && config.TokenProvider == nil {
		if err := validateTokenCode(config.TokenCode); err != nil {
			return nil, fmt.Errorf("%w: %w", creds.ErrConfiguration, err)
		}
	}
	if config.DurationSeconds == 0 {
		config.DurationSeconds = defaultDurationSeconds
	}

	return &source{
		client: client,
		config: config,
		rng:    rand.New(rand.NewSource(seed)),
		logger: logrus.WithField("prefix", "iam/source"),
	}, nil
}

func (source *source) Fetch() (*creds.Snapshot, error) {
	input := &sts.AssumeRoleInput{
		RoleArn:         aws.String(source.config.RoleArn),
		RoleSessionName: aws.String(source.sessionName()),
		DurationSeconds: aws.Int64(source.config.DurationSeconds),
	}
	if source.config.ExternalID != "" {
		input.ExternalId = aws.String(source.config.ExternalID)
	}
	if source.config.SerialNumber != "" {
		input.SerialNumber = aws.String(source.config.SerialNumber)
	}
	if source.config.TokenProvider != nil {
		token, err := source.config.TokenProvider()
		if err != nil {
			return nil, fmt.Errorf("MFA token provider failed: %w", err)
		}
		if err := validateTokenCode(token); err != nil {
			return nil, err
		}
		input.TokenCode = aws.String(token)
	} else if source.config.TokenCode != "" {
		input.TokenCode = aws.String(source.config.TokenCode)
	}

	source.logger.WithField("role", source.config.RoleArn).Debug("Assuming role")
	output, err := source.client.AssumeRole(input)
	if err != nil {
		return nil, err
	}
	if output.Credentials == nil {
		return nil, fmt.Errorf("No credentials returned for: %s", source.config.RoleArn)
	}

	source.logger.WithField("role", source.config.RoleArn).Debug("Role successfully assumed")
	return &creds.Snapshot{
		AccessKeyID:     aws.StringValue(output.Credentials.AccessKeyId),
		SecretAccessKey: aws.StringValue(output.Credentials.SecretAccessKey),
		SessionToken:    aws.StringValue(output.Credentials.SessionToken),
		Expiration:      aws.TimeValue(output.Credentials.Expiration),
	}, nil
}

// Identity reports the caller identity according to AWS STS.
func (source *source) Identity() (creds.Identity, error) {
	output, err := source.client.GetCallerIdentity(&sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, err
	}
	return creds.Identity{
		"Account": aws.StringValue(output.Account),
		"Arn":     aws.StringValue(output.Arn),
		"UserId":  aws.StringValue(output.UserId),
	}, nil
}

func (source *source) sessionName() string {
	if source.config.RoleSessionName != "" {
		return source.config.RoleSessionName
	}
	ary := [sessionNameLength]byte{}
	idx := 0
	for idx < sessionNameLength {
		source.rngMutex.Lock()
		value := source.rng.Int63()
		source.rngMutex.Unlock()
		for (value > 0) && (idx < sessionNameLength) {
			ary[idx] = byte((value % 26) + 65)
			value /= 26
			idx++
		}
	}
	return string(ary[:])
}

func validateTokenCode(token string) error {
	if len(token) != 6 {
		return fmt.Errorf("MFA token code must be a 6-digit string, got %q", token)
	}
	for _, char := range token {
		if char < '0' || char > '9' {
			return fmt.Errorf("MFA token code must be a 6-digit string, got %q", token)
		}
	}
	return nil
}

type source struct {
	client   STSClient
	config   Config
	rng      *rand.Rand
	rngMutex sync.Mutex
	logger   *logrus.Entry
}

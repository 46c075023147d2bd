package iam

import (
	"github.com/aws/aws-sdk-go/service/sts"
)

// STSClient specifies the subset of STS API calls used by the Source.
type STSClient interface {
	AssumeRole(*sts.AssumeRoleInput) (*sts.AssumeRoleOutput, error)
	GetCallerIdentity(*sts.GetCallerIdentityInput) (*sts.GetCallerIdentityOutput, error)
}

// TokenProvider returns a fresh MFA token code. It is invoked on every
// credential refresh when configured.
type TokenProvider func() (string, error)

// Config holds the AssumeRole parameters for an STS-backed credential source.
type Config struct {
	// RoleArn of the IAM role to assume. Required.
	RoleArn string
	// RoleSessionName for the assumed sessions. A random name is generated
	// per refresh when empty.
	RoleSessionName string
	// DurationSeconds is the lifetime of each assumed credential. Defaults
	// to 3600.
	DurationSeconds int64
	// ExternalID disambiguates cross-account role assumption. Optional.
	ExternalID string
	// SerialNumber identifies the MFA device. Required when TokenProvider
	// or TokenCode is set.
	SerialNumber string
	// TokenCode is a static MFA token. Prefer TokenProvider for tokens
	// that rotate; you are responsible for replacing a static token before
	// it expires.
	TokenCode string
	// TokenProvider supplies a fresh MFA token per refresh. It overrides
	// TokenCode.
	TokenProvider TokenProvider
}

package mock

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go/service/sts"
)

// STSClient implements github.com/swipely/refreshable/src/iam.STSClient.
type STSClient struct {
	AssumableRoles map[string]*sts.Credentials
	CallerIdentity *sts.GetCallerIdentityOutput

	mutex           sync.Mutex
	assumeRoleCalls int
	inputs          []*sts.AssumeRoleInput
}

// NewSTSClient returns a mock STSClient.
func NewSTSClient() *STSClient {
	return &STSClient{
		AssumableRoles: make(map[string]*sts.Credentials),
	}
}

// AssumeRole uses the mock's AssumableRoles to try to assume an IAM role.
func (mock *STSClient) AssumeRole(input *sts.AssumeRoleInput) (*sts.AssumeRoleOutput, error) {
	mock.mutex.Lock()
	mock.assumeRoleCalls++
	mock.inputs = append(mock.inputs, input)
	mock.mutex.Unlock()

	if input == nil {
		return nil, errors.New("No AssumeRoleInput given")
	} else if input.RoleArn == nil {
		return nil, errors.New("No RoleArn given")
	}
	credential, hasKey := mock.AssumableRoles[*input.RoleArn]
	if !hasKey {
		return nil, fmt.Errorf("Cannot assume role: %s", *input.RoleArn)
	}
	output := &sts.AssumeRoleOutput{Credentials: credential}
	return output, nil
}

// GetCallerIdentity returns the configured CallerIdentity.
func (mock *STSClient) GetCallerIdentity(_ *sts.GetCallerIdentityInput) (*sts.GetCallerIdentityOutput, error) {
	if mock.CallerIdentity == nil {
		return nil, errors.New("No caller identity configured")
	}
	return mock.CallerIdentity, nil
}

// AssumeRoleCalls reports how often AssumeRole was invoked.
func (mock *STSClient) AssumeRoleCalls() int {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	return mock.assumeRoleCalls
}

// LastAssumeRoleInput returns the most recent AssumeRole input, or nil.
func (mock *STSClient) LastAssumeRoleInput() *sts.AssumeRoleInput {
	mock.mutex.Lock()
	defer mock.mutex.Unlock()
	if len(mock.inputs) == 0 {
		return nil
	}
	return mock.inputs[len(mock.inputs)-1]
}

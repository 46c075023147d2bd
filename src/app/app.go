package app

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/swipely/refreshable/src/creds"
	"github.com/swipely/refreshable/src/iam"
)

var log = logrus.WithField("prefix", "app")

// New creates a new application with the given config.
func New(config *Config, stsClient iam.STSClient, output io.Writer) *App {
	return &App{
		Config:    config,
		STSClient: stsClient,
		Output:    output,
	}
}

// Run assumes the configured role once and writes the credentials to the
// output as shell export lines, suitable for eval in a subshell.
func (app *App) Run() error {
	log.WithField("role", app.Config.RoleArn).Info("Assuming role")

	source, err := iam.NewSource(app.STSClient, time.Now().UnixNano(), iam.Config{
		RoleArn:         app.Config.RoleArn,
		RoleSessionName: app.Config.RoleSessionName,
		DurationSeconds: app.Config.DurationSeconds,
		ExternalID:      app.Config.ExternalID,
		SerialNumber:    app.Config.SerialNumber,
		TokenCode:       app.Config.TokenCode,
	})
	if err != nil {
		return err
	}

	manager, err := creds.NewManager(source, creds.Config{
		AdvisoryTimeout:  app.Config.AdvisoryTimeout,
		MandatoryTimeout: app.Config.MandatoryTimeout,
	})
	if err != nil {
		return err
	}

	snapshot, err := manager.Current()
	if err != nil {
		return err
	}

	if app.Config.ShowIdentity {
		if err := app.printIdentity(source); err != nil {
			return err
		}
	}
	return app.printSnapshot(snapshot)
}

func (app *App) printSnapshot(snapshot *creds.Snapshot) error {
	lines := []string{
		fmt.Sprintf("export AWS_ACCESS_KEY_ID=%s", snapshot.AccessKeyID),
		fmt.Sprintf("export AWS_SECRET_ACCESS_KEY=%s", snapshot.SecretAccessKey),
		fmt.Sprintf("export AWS_SESSION_TOKEN=%s", snapshot.SessionToken),
		fmt.Sprintf("# expires %s", snapshot.Expiration.Format(time.RFC3339)),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(app.Output, line); err != nil {
			return err
		}
	}
	return nil
}

func (app *App) printIdentity(source creds.Source) error {
	identitySource, ok := source.(creds.IdentitySource)
	if !ok {
		return creds.ErrIdentityUnsupported
	}
	identity, err := identitySource.Identity()
	if err != nil {
		return err
	}
	for _, key := range []string{"Account", "Arn", "UserId"} {
		if _, err := fmt.Fprintf(app.Output, "# %s: %s\n", key, identity[key]); err != nil {
			return err
		}
	}
	return nil
}

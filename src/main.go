package main

import (
	"flag"
	"os"
	"time"

	awsSession "github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/sirupsen/logrus"

	"github.com/swipely/refreshable/src/app"
	refreshableLog "github.com/swipely/refreshable/src/log"
)

var (
	log = logrus.WithField("prefix", "main")

	roleArn          = flag.String("role-arn", "", "ARN of the IAM role to assume")
	sessionName      = flag.String("session-name", "", "Role session name; a random name is generated when empty")
	duration         = flag.Int64("duration", 3600, "Lifetime of the assumed credentials in seconds")
	externalID       = flag.String("external-id", "", "External ID for cross-account role assumption")
	serialNumber     = flag.String("serial-number", "", "ARN of the MFA device to authenticate with")
	tokenCode        = flag.String("token-code", "", "Current MFA token code")
	advisoryTimeout  = flag.Duration("advisory-timeout", 15*time.Minute, "Time before expiration at which refresh becomes worthwhile")
	mandatoryTimeout = flag.Duration("mandatory-timeout", 10*time.Minute, "Time before expiration at which credentials stop being served")
	whoami           = flag.Bool("whoami", false, "Also print the caller identity")
	verbose          = flag.Bool("verbose", false, "Log at debug level")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&refreshableLog.Formatter{})
	logrus.SetOutput(os.Stderr)
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if *roleArn == "" {
		log.Error("A role-arn is required")
		flag.Usage()
		os.Exit(1)
	}

	config := &app.Config{
		RoleArn:          *roleArn,
		RoleSessionName:  *sessionName,
		DurationSeconds:  *duration,
		ExternalID:       *externalID,
		SerialNumber:     *serialNumber,
		TokenCode:        *tokenCode,
		AdvisoryTimeout:  *advisoryTimeout,
		MandatoryTimeout: *mandatoryTimeout,
		ShowIdentity:     *whoami,
	}

	sess, err := awsSession.NewSession()
	if err != nil {
		log.WithField("error", err.Error()).Error("Unable to create AWS session")
		os.Exit(1)
	}

	inst := app.New(config, sts.New(sess), os.Stdout)
	if err := inst.Run(); err != nil {
		log.WithField("error", err.Error()).Error("Fatal error, exiting")
		os.Exit(1)
	}
}

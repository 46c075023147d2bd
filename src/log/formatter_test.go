package log_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	. "github.com/swipely/refreshable/src/log"
)

var _ = Describe("Formatter", func() {
	var (
		subject *Formatter
		entry   *logrus.Entry
	)

	BeforeEach(func() {
		subject = &Formatter{}
		entry = &logrus.Entry{
			Level:   logrus.InfoLevel,
			Time:    time.Date(2024, time.March, 4, 5, 6, 7, 0, time.UTC),
			Message: "Credentials refreshed",
			Data: logrus.Fields{
				"prefix": "creds",
			},
		}
	})

	Describe("Format", func() {
		Context("When the entry has a prefix", func() {
			It("Renders the level, time, prefix and message", func() {
				line, err := subject.Format(entry)
				Expect(err).ToNot(HaveOccurred())
				Expect(string(line)).To(Equal("I 2024-03-04T05:06:07Z [creds] Credentials refreshed\n"))
			})
		})

		Context("When the entry carries extra fields", func() {
			It("Appends them as key=value pairs", func() {
				entry.Data["expiration"] = "2024-03-04T06:06:07Z"
				line, err := subject.Format(entry)
				Expect(err).ToNot(HaveOccurred())
				Expect(string(line)).To(ContainSubstring("expiration=2024-03-04T06:06:07Z"))
			})

			It("Quotes values that need escaping", func() {
				entry.Data["error"] = "bad thing"
				line, err := subject.Format(entry)
				Expect(err).ToNot(HaveOccurred())
				Expect(string(line)).To(ContainSubstring(`error="bad thing"`))
			})
		})

		Context("When the entry has no prefix", func() {
			It("Returns an error", func() {
				delete(entry.Data, "prefix")
				_, err := subject.Format(entry)
				Expect(err).To(HaveOccurred())
			})
		})
	})
})

package session_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/swipely/refreshable/src/creds"
	"github.com/swipely/refreshable/src/mock"
	"github.com/swipely/refreshable/src/session"
)

var _ = Describe("Session", func() {
	var (
		source       *mock.CredentialSource
		now          time.Time
		clock        func() time.Time
		constructed  int
		lastProvider creds.Provider
	)

	constructor := func(params session.ClientParams, provider creds.Provider) (any, error) {
		constructed++
		lastProvider = provider
		return mock.NewClientHandle(params.ServiceName), nil
	}

	validSnapshot := func() *creds.Snapshot {
		return &creds.Snapshot{
			AccessKeyID:     "fakeaccesskeyid",
			SecretAccessKey: "fakesecretaccesskey",
			SessionToken:    "fakesessiontoken",
			Expiration:      now.Add(time.Hour),
		}
	}

	newSession := func(config session.Config) session.Session {
		config.Clock = clock
		sess, err := session.New(source, constructor, config)
		Expect(err).ToNot(HaveOccurred())
		return sess
	}

	BeforeEach(func() {
		source = mock.NewCredentialSource()
		now = time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC)
		clock = func() time.Time { return now }
		constructed = 0
		lastProvider = nil
	})

	Describe("New", func() {
		Context("When no constructor is given", func() {
			It("Returns a configuration error", func() {
				sess, err := session.New(source, nil, session.Config{})
				Expect(sess).To(BeNil())
				Expect(err).To(MatchError(session.ErrConfiguration))
			})
		})

		Context("When a cache capacity is set alongside DisableCache", func() {
			It("Returns a configuration error", func() {
				sess, err := session.New(source, constructor, session.Config{
					DisableCache:  true,
					CacheCapacity: 4,
				})
				Expect(sess).To(BeNil())
				Expect(err).To(MatchError(session.ErrConfiguration))
			})
		})

		Context("When the refresh policy is invalid", func() {
			It("Propagates the configuration error", func() {
				sess, err := session.New(source, constructor, session.Config{
					AdvisoryTimeout:  time.Minute,
					MandatoryTimeout: time.Hour,
				})
				Expect(sess).To(BeNil())
				Expect(err).To(MatchError(creds.ErrConfiguration))
			})
		})

		Context("When deferred refresh is configured", func() {
			It("Does not touch the credential source", func() {
				newSession(session.Config{})
				Expect(source.Calls()).To(Equal(0))
			})
		})

		Context("When eager refresh is configured", func() {
			It("Fetches credentials before returning", func() {
				source.Push(validSnapshot())
				sess := newSession(session.Config{EagerRefresh: true})
				defer sess.Close()
				Expect(source.Calls()).To(Equal(1))
			})

			It("Fails construction when the initial fetch fails", func() {
				source.Fail(errors.New("sts is down"))
				sess, err := session.New(source, constructor, session.Config{
					EagerRefresh: true,
					Clock:        clock,
				})
				Expect(sess).To(BeNil())
				Expect(err).To(MatchError(creds.ErrRefresh))
			})
		})
	})

	Describe("Client", func() {
		BeforeEach(func() {
			source.Push(validSnapshot())
		})

		Context("When the params are incomplete", func() {
			It("Requires a service name", func() {
				sess := newSession(session.Config{})
				handle, err := sess.Client(session.ClientParams{Region: "us-east-1"})
				Expect(handle).To(BeNil())
				Expect(err).To(MatchError(session.ErrConfiguration))
			})

			It("Rejects reserved Extra keys", func() {
				sess := newSession(session.Config{})
				handle, err := sess.Client(session.ClientParams{
					ServiceName: "s3",
					Extra:       map[string]string{"region": "us-east-1"},
				})
				Expect(handle).To(BeNil())
				Expect(err).To(MatchError(session.ErrConfiguration))
			})
		})

		Context("When the same client is requested twice", func() {
			It("Returns the cached handle", func() {
				sess := newSession(session.Config{})
				first, err := sess.Client(session.ClientParams{ServiceName: "s3", Region: "us-east-1"})
				Expect(err).ToNot(HaveOccurred())
				second, err := sess.Client(session.ClientParams{ServiceName: "s3", Region: "us-east-1"})
				Expect(err).ToNot(HaveOccurred())
				Expect(second).To(BeIdenticalTo(first))
				Expect(constructed).To(Equal(1))
				Expect(sess.CacheLen()).To(Equal(1))
			})

			It("Ignores the order Extra options were added in", func() {
				sess := newSession(session.Config{})
				first, err := sess.Client(session.ClientParams{
					ServiceName: "s3",
					Extra:       map[string]string{"use_ssl": "true", "addressing": "path"},
				})
				Expect(err).ToNot(HaveOccurred())
				second, err := sess.Client(session.ClientParams{
					ServiceName: "s3",
					Extra:       map[string]string{"addressing": "path", "use_ssl": "true"},
				})
				Expect(err).ToNot(HaveOccurred())
				Expect(second).To(BeIdenticalTo(first))
				Expect(constructed).To(Equal(1))
			})
		})

		Context("When different clients are requested", func() {
			It("Constructs a distinct handle per parameter set", func() {
				sess := newSession(session.Config{})
				first, err := sess.Client(session.ClientParams{ServiceName: "s3", Region: "us-east-1"})
				Expect(err).ToNot(HaveOccurred())
				second, err := sess.Client(session.ClientParams{ServiceName: "s3", Region: "us-west-2"})
				Expect(err).ToNot(HaveOccurred())
				Expect(second).ToNot(BeIdenticalTo(first))
				Expect(constructed).To(Equal(2))
				Expect(sess.CacheLen()).To(Equal(2))
			})
		})

		Context("When the cache is disabled", func() {
			It("Constructs a fresh handle every call", func() {
				sess := newSession(session.Config{DisableCache: true})
				first, err := sess.Client(session.ClientParams{ServiceName: "s3"})
				Expect(err).ToNot(HaveOccurred())
				second, err := sess.Client(session.ClientParams{ServiceName: "s3"})
				Expect(err).ToNot(HaveOccurred())
				Expect(second).ToNot(BeIdenticalTo(first))
				Expect(constructed).To(Equal(2))
				Expect(sess.CacheLen()).To(Equal(0))
			})
		})

		Context("When the cache is full", func() {
			It("Closes the evicted handle", func() {
				sess := newSession(session.Config{CacheCapacity: 1})
				first, err := sess.Client(session.ClientParams{ServiceName: "s3"})
				Expect(err).ToNot(HaveOccurred())
				_, err = sess.Client(session.ClientParams{ServiceName: "sqs"})
				Expect(err).ToNot(HaveOccurred())
				Expect(sess.CacheLen()).To(Equal(1))
				Expect(first.(*mock.ClientHandle).Closed()).To(BeTrue())
			})
		})

		Context("When the credentials are past the mandatory boundary", func() {
			It("Fails instead of handing out a client", func() {
				sess := newSession(session.Config{})
				_, err := sess.Credentials()
				Expect(err).ToNot(HaveOccurred())

				now = now.Add(2 * time.Hour)
				source.Fail(errors.New("sts is down"))

				handle, err := sess.Client(session.ClientParams{ServiceName: "s3"})
				Expect(handle).To(BeNil())
				Expect(err).To(MatchError(creds.ErrRefresh))
				Expect(sess.CacheLen()).To(Equal(0))
			})
		})

		Context("When a handle is constructed", func() {
			It("Hands the credential provider to the constructor", func() {
				sess := newSession(session.Config{})
				_, err := sess.Client(session.ClientParams{ServiceName: "s3"})
				Expect(err).ToNot(HaveOccurred())

				snapshot, err := lastProvider.Current()
				Expect(err).ToNot(HaveOccurred())
				Expect(snapshot.AccessKeyID).To(Equal("fakeaccesskeyid"))
			})
		})
	})

	Describe("CachedClient", func() {
		BeforeEach(func() {
			source.Push(validSnapshot())
		})

		It("Reports misses without constructing", func() {
			sess := newSession(session.Config{})
			handle, hasHandle := sess.CachedClient(session.ClientParams{ServiceName: "s3"})
			Expect(hasHandle).To(BeFalse())
			Expect(handle).To(BeNil())
			Expect(constructed).To(Equal(0))
		})

		It("Finds handles constructed by Client", func() {
			sess := newSession(session.Config{})
			built, err := sess.Client(session.ClientParams{ServiceName: "s3"})
			Expect(err).ToNot(HaveOccurred())
			handle, hasHandle := sess.CachedClient(session.ClientParams{ServiceName: "s3"})
			Expect(hasHandle).To(BeTrue())
			Expect(handle).To(BeIdenticalTo(built))
		})
	})

	Describe("ClearCache", func() {
		It("Drops every cached handle", func() {
			source.Push(validSnapshot())
			sess := newSession(session.Config{})
			_, err := sess.Client(session.ClientParams{ServiceName: "s3"})
			Expect(err).ToNot(HaveOccurred())
			_, err = sess.Client(session.ClientParams{ServiceName: "sqs"})
			Expect(err).ToNot(HaveOccurred())

			sess.ClearCache()

			Expect(sess.CacheLen()).To(Equal(0))
			_, hasHandle := sess.CachedClient(session.ClientParams{ServiceName: "s3"})
			Expect(hasHandle).To(BeFalse())
		})
	})

	Describe("Credentials", func() {
		It("Runs the credential lifecycle", func() {
			source.Push(validSnapshot())
			sess := newSession(session.Config{})
			snapshot, err := sess.Credentials()
			Expect(err).ToNot(HaveOccurred())
			Expect(snapshot.SessionToken).To(Equal("fakesessiontoken"))
			Expect(source.Calls()).To(Equal(1))
		})
	})

	Describe("WhoAmI", func() {
		Context("When the source reports identity", func() {
			It("Returns it", func() {
				source.SetIdentity(creds.Identity{"Account": "123456789012"})
				sess := newSession(session.Config{})
				identity, err := sess.WhoAmI()
				Expect(err).ToNot(HaveOccurred())
				Expect(identity).To(HaveKeyWithValue("Account", "123456789012"))
			})
		})

		Context("When the source cannot report identity", func() {
			It("Returns an unsupported error", func() {
				anonymous := creds.SourceFunc(func() (*creds.Snapshot, error) {
					return validSnapshot(), nil
				})
				sess, err := session.New(anonymous, constructor, session.Config{Clock: clock})
				Expect(err).ToNot(HaveOccurred())
				identity, err := sess.WhoAmI()
				Expect(identity).To(BeNil())
				Expect(err).To(MatchError(creds.ErrIdentityUnsupported))
			})
		})
	})

	Describe("Close", func() {
		It("Is safe to call twice", func() {
			source.Push(validSnapshot())
			sess := newSession(session.Config{EagerRefresh: true})
			Expect(sess.Close()).To(Succeed())
			Expect(sess.Close()).To(Succeed())
		})
	})
})

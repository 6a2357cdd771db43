package application

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/notely-app/notely-api/internal/domain/entity"
	"github.com/notely-app/notely-api/internal/domain/otp"
	"github.com/notely-app/notely-api/internal/domain/repository"
	"github.com/notely-app/notely-api/pkg/helpers"
	"github.com/notely-app/notely-api/pkg/mailer"
)

var (
	ErrAlreadyRegistered = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrNoChallenge       = errors.New("no pending code")
	ErrOTPMismatch       = errors.New("code mismatch")
	ErrOTPExpired        = errors.New("code expired")
	ErrDeliveryFailed    = errors.New("email delivery failed")
)

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + " " + e.Reason }

// Publisher is the email-delivery capability: jobs are queued, a worker sends
// them. Satisfied by helpers.RabbitPublisher.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

var emailRx = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

var dobLayouts = []string{"2006-01-02", time.RFC3339}

// AuthService orchestrates the signup/login/verify/resend flows: it owns the
// state machine NoAccount -> PendingVerification -> Verified per email, reading
// and writing the identity store, invoking the OTP engine under atomic record
// updates, and minting session tokens.
type AuthService struct {
	Repo    repository.UserRepository
	OTP     *otp.Engine
	JWT     *helpers.JWTManager
	Pub     Publisher
	Logger  *logrus.Logger
	AppName string

	now func() time.Time
}

func NewAuthService(repo repository.UserRepository, engine *otp.Engine, jwt *helpers.JWTManager, pub Publisher, logger *logrus.Logger, appName string) *AuthService {
	return &AuthService{
		Repo:    repo,
		OTP:     engine,
		JWT:     jwt,
		Pub:     pub,
		Logger:  logger,
		AppName: appName,
		now:     time.Now,
	}
}

// Session is a minted bearer token plus its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

type SignupInput struct {
	Email string
	Name  string
	DOB   string
}

func validateEmail(email string) error {
	if !emailRx.MatchString(email) {
		return &ValidationError{Field: "email", Reason: "must be a valid email address"}
	}
	return nil
}

func parseDOB(raw string, now time.Time) (*time.Time, error) {
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			if t.After(now) {
				return nil, &ValidationError{Field: "dob", Reason: "cannot be in the future"}
			}
			return &t, nil
		}
	}
	return nil, &ValidationError{Field: "dob", Reason: "must be a valid date"}
}

// Signup starts (or restarts) registration for an email. Rejects emails that
// already completed verification; otherwise it creates or refreshes the
// pending record, attaches a fresh challenge and dispatches delivery.
// The challenge is persisted before delivery is attempted: a failed send
// leaves the record resendable.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (string, error) {
	email := entity.NormalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return "", err
	}
	name := strings.TrimSpace(in.Name)
	if n := len([]rune(name)); n < 2 || n > 50 {
		return "", &ValidationError{Field: "name", Reason: "must be between 2 and 50 characters long"}
	}
	var dob *time.Time
	if in.DOB != "" {
		var err error
		if dob, err = parseDOB(in.DOB, s.now()); err != nil {
			return "", err
		}
	}

	var code string
	existing, err := s.Repo.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.Verified:
		return "", ErrAlreadyRegistered
	case err == nil:
		// Existing unverified signup: refresh profile fields and the challenge.
		_, err = s.Repo.Update(ctx, email, func(u *entity.User) error {
			u.Name = name
			if dob != nil {
				u.DOB = dob
			}
			c, ierr := s.OTP.Issue(u, s.now())
			code = c
			return ierr
		})
		if err != nil {
			return "", err
		}
	case errors.Is(err, repository.ErrNotFound):
		u := &entity.User{Email: email, Name: name, DOB: dob}
		if code, err = s.OTP.Issue(u, s.now()); err != nil {
			return "", err
		}
		if err = s.Repo.Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return "", ErrAlreadyRegistered
			}
			return "", err
		}
	default:
		return "", err
	}

	if err := s.dispatchOTP(ctx, email, code); err != nil {
		return email, err
	}
	return email, nil
}

// VerifySignup consumes the pending challenge; on success the identity
// becomes Verified and a session is minted.
func (s *AuthService) VerifySignup(ctx context.Context, email, code string) (*entity.User, Session, error) {
	return s.verify(ctx, email, code, false)
}

// VerifyLogin is VerifySignup for identities that are already Verified.
func (s *AuthService) VerifyLogin(ctx context.Context, email, code string) (*entity.User, Session, error) {
	return s.verify(ctx, email, code, true)
}

func (s *AuthService) verify(ctx context.Context, email, code string, requireVerified bool) (*entity.User, Session, error) {
	email = entity.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, Session{}, err
	}

	u, err := s.Repo.Update(ctx, email, func(u *entity.User) error {
		if requireVerified && !u.Verified {
			return ErrUserNotFound
		}
		switch s.OTP.Verify(u, code, s.now()) {
		case otp.OK:
			return nil
		case otp.Mismatch:
			return ErrOTPMismatch
		case otp.Expired:
			return ErrOTPExpired
		default:
			return ErrNoChallenge
		}
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			if requireVerified {
				return nil, Session{}, ErrUserNotFound
			}
			return nil, Session{}, ErrNoChallenge
		}
		return nil, Session{}, err
	}

	sess, err := s.Mint(u)
	if err != nil {
		return nil, Session{}, err
	}
	return u, sess, nil
}

// Login issues a fresh challenge for a Verified identity. Absent and
// unverified identities are rejected alike; no record is ever created here.
func (s *AuthService) Login(ctx context.Context, email string) (string, error) {
	email = entity.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return "", err
	}

	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if !u.Verified {
		return "", ErrUserNotFound
	}
	return s.reissue(ctx, email)
}

// Resend re-issues a challenge for any existing identity, verified or not.
func (s *AuthService) Resend(ctx context.Context, email string) (string, error) {
	email = entity.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return "", err
	}
	return s.reissue(ctx, email)
}

func (s *AuthService) reissue(ctx context.Context, email string) (string, error) {
	var code string
	_, err := s.Repo.Update(ctx, email, func(u *entity.User) error {
		c, ierr := s.OTP.Issue(u, s.now())
		code = c
		return ierr
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	if err := s.dispatchOTP(ctx, email, code); err != nil {
		return email, err
	}
	return email, nil
}

// Mint issues a session token for a verified identity.
func (s *AuthService) Mint(u *entity.User) (Session, error) {
	token, exp, err := s.JWT.Mint(u.ID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("mint session token failed")
		}
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: exp}, nil
}

// Profile resolves a user by id for the gated profile endpoint.
func (s *AuthService) Profile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) dispatchOTP(ctx context.Context, to, code string) error {
	if s.Pub == nil {
		if s.Logger != nil {
			s.Logger.WithField("to", to).Debug("no publisher configured, skipping otp delivery")
		}
		return nil
	}
	job := mailer.NewOTPJob(to, code, s.AppName, int(s.OTP.TTL.Minutes()))
	if err := s.Pub.PublishJSON(ctx, job); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("to", to).Error("failed to enqueue otp email")
		}
		return ErrDeliveryFailed
	}
	return nil
}

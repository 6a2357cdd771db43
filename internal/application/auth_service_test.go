package application

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/notely-app/notely-api/internal/domain/entity"
	"github.com/notely-app/notely-api/internal/domain/otp"
	"github.com/notely-app/notely-api/internal/domain/repository"
	"github.com/notely-app/notely-api/pkg/helpers"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestAuth(t *testing.T) (*AuthService, *memUserRepo, *recordingPublisher) {
	t.Helper()
	repo := newMemUserRepo()
	pub := &recordingPublisher{}
	svc := NewAuthService(
		repo,
		otp.NewEngine(0),
		helpers.NewJWTManager("test-secret", 7*24*time.Hour),
		pub,
		quietLogger(),
		"Notely",
	)
	return svc, repo, pub
}

func TestSignup_Validation(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   SignupInput
	}{
		{"missing email", SignupInput{Name: "Al"}},
		{"bad email", SignupInput{Email: "not-an-email", Name: "Al"}},
		{"short name", SignupInput{Email: "a@b.com", Name: "A"}},
		{"long name", SignupInput{Email: "a@b.com", Name: string(make([]rune, 51))}},
		{"unparseable dob", SignupInput{Email: "a@b.com", Name: "Al", DOB: "not-a-date"}},
		{"future dob", SignupInput{Email: "a@b.com", Name: "Al", DOB: "2999-01-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.in)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("Signup(%+v) error = %v, want ValidationError", tt.in, err)
			}
		})
	}
}

func TestSignup_NormalizesEmailAndIssuesChallenge(t *testing.T) {
	svc, repo, pub := newTestAuth(t)
	ctx := context.Background()

	email, err := svc.Signup(ctx, SignupInput{Email: "  Alice@Example.COM ", Name: " Alice "})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if email != "alice@example.com" {
		t.Errorf("Signup() email = %q, want normalized", email)
	}

	u, err := repo.GetByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if u.Verified {
		t.Error("fresh signup is already verified")
	}
	if u.Challenge == nil {
		t.Fatal("signup stored no challenge")
	}
	if u.Name != "Alice" {
		t.Errorf("stored name = %q, want trimmed %q", u.Name, "Alice")
	}
	if pub.count() != 1 || pub.lastCode() == "" {
		t.Error("signup did not queue an otp email")
	}
}

func TestSignup_RejectsVerifiedEmail(t *testing.T) {
	svc, repo, _ := newTestAuth(t)
	ctx := context.Background()

	mustSignupAndVerify(t, svc, "a@b.com", "Al")

	if _, err := svc.Signup(ctx, SignupInput{Email: "a@b.com", Name: "Al"}); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("Signup(verified email) error = %v, want ErrAlreadyRegistered", err)
	}
	if _, err := repo.GetByEmail(ctx, "a@b.com"); err != nil {
		t.Errorf("verified record disappeared: %v", err)
	}
}

func TestSignup_RefreshesUnverifiedRecord(t *testing.T) {
	svc, repo, pub := newTestAuth(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Email: "a@b.com", Name: "Al"}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	first := pub.lastCode()

	if _, err := svc.Signup(ctx, SignupInput{Email: "a@b.com", Name: "Alice"}); err != nil {
		t.Fatalf("second Signup() error = %v", err)
	}
	u, _ := repo.GetByEmail(ctx, "a@b.com")
	if u.Name != "Alice" {
		t.Errorf("name = %q, want refreshed to %q", u.Name, "Alice")
	}

	// Stale code no longer verifies; latest does.
	if _, _, err := svc.VerifySignup(ctx, "a@b.com", first); !errors.Is(err, ErrOTPMismatch) {
		t.Errorf("VerifySignup(stale code) error = %v, want ErrOTPMismatch", err)
	}
	if _, _, err := svc.VerifySignup(ctx, "a@b.com", pub.lastCode()); err != nil {
		t.Errorf("VerifySignup(latest code) error = %v", err)
	}
}

func TestVerifySignup_FullScenario(t *testing.T) {
	svc, repo, pub := newTestAuth(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Email: "a@b.com", Name: "Al"}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	code := pub.lastCode()

	wrong := "654321"
	if wrong == code {
		wrong = "654322"
	}
	if _, _, err := svc.VerifySignup(ctx, "a@b.com", wrong); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("VerifySignup(wrong) error = %v, want ErrOTPMismatch", err)
	}
	u, _ := repo.GetByEmail(ctx, "a@b.com")
	if u.Verified || u.Challenge == nil {
		t.Fatal("mismatch changed identity state")
	}

	got, sess, err := svc.VerifySignup(ctx, "a@b.com", code)
	if err != nil {
		t.Fatalf("VerifySignup(correct) error = %v", err)
	}
	if sess.Token == "" {
		t.Error("no session token minted")
	}
	if !got.Verified {
		t.Error("identity not verified after success")
	}
	u, _ = repo.GetByEmail(ctx, "a@b.com")
	if !u.Verified || u.Challenge != nil {
		t.Error("stored identity not verified with cleared challenge")
	}

	// The challenge was consumed; the same code cannot be replayed.
	if _, _, err := svc.VerifySignup(ctx, "a@b.com", code); !errors.Is(err, ErrNoChallenge) {
		t.Errorf("replayed VerifySignup error = %v, want ErrNoChallenge", err)
	}
}

func TestVerifySignup_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	if _, _, err := svc.VerifySignup(context.Background(), "ghost@b.com", "123456"); !errors.Is(err, ErrNoChallenge) {
		t.Errorf("VerifySignup(unknown email) error = %v, want ErrNoChallenge", err)
	}
}

func TestVerifySignup_Expired(t *testing.T) {
	svc, _, pub := newTestAuth(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Email: "a@b.com", Name: "Al"}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	code := pub.lastCode()

	// Move the clock one unit past the expiry window.
	svc.now = func() time.Time { return time.Now().Add(otp.DefaultTTL + time.Nanosecond) }
	if _, _, err := svc.VerifySignup(ctx, "a@b.com", code); !errors.Is(err, ErrOTPExpired) {
		t.Errorf("VerifySignup(after window) error = %v, want ErrOTPExpired", err)
	}
}

func TestLogin_RequiresVerifiedIdentity(t *testing.T) {
	svc, repo, _ := newTestAuth(t)
	ctx := context.Background()

	// Absent identity: rejected, no record created.
	if _, err := svc.Login(ctx, "ghost@b.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Login(absent) error = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetByEmail(ctx, "ghost@b.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Error("Login created a record for an unknown email")
	}

	// Unverified identity: same rejection.
	if _, err := svc.Signup(ctx, SignupInput{Email: "a@b.com", Name: "Al"}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if _, err := svc.Login(ctx, "a@b.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Login(unverified) error = %v, want ErrUserNotFound", err)
	}
}

func TestLoginAndVerifyLogin(t *testing.T) {
	svc, _, pub := newTestAuth(t)
	ctx := context.Background()

	mustSignupAndVerify(t, svc, "a@b.com", "Al")

	if _, err := svc.Login(ctx, "A@B.com"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	u, sess, err := svc.VerifyLogin(ctx, "a@b.com", pub.lastCode())
	if err != nil {
		t.Fatalf("VerifyLogin() error = %v", err)
	}
	if sess.Token == "" || !u.Verified {
		t.Error("VerifyLogin did not yield a usable session for a verified identity")
	}

	// Token resolves back to the same user.
	claims, err := svc.JWT.Parse(sess.Token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.UserID != u.ID {
		t.Errorf("token uid = %q, want %q", claims.UserID, u.ID)
	}
}

func TestVerifyLogin_NoChallenge(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	ctx := context.Background()

	mustSignupAndVerify(t, svc, "a@b.com", "Al")

	if _, _, err := svc.VerifyLogin(ctx, "a@b.com", "123456"); !errors.Is(err, ErrNoChallenge) {
		t.Errorf("VerifyLogin(no pending code) error = %v, want ErrNoChallenge", err)
	}
}

func TestVerifyLogin_UnverifiedIdentity(t *testing.T) {
	svc, _, pub := newTestAuth(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Email: "a@b.com", Name: "Al"}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if _, _, err := svc.VerifyLogin(ctx, "a@b.com", pub.lastCode()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("VerifyLogin(unverified) error = %v, want ErrUserNotFound", err)
	}
}

func TestResend_OnlyLatestCodeVerifies(t *testing.T) {
	svc, _, pub := newTestAuth(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Email: "a@b.com", Name: "Al"}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if _, err := svc.Resend(ctx, "a@b.com"); err != nil {
		t.Fatalf("Resend() error = %v", err)
	}
	if _, err := svc.Resend(ctx, "a@b.com"); err != nil {
		t.Fatalf("Resend() error = %v", err)
	}
	if pub.count() != 3 {
		t.Fatalf("queued %d emails, want 3", pub.count())
	}
	codes := make(map[string]bool)
	for _, j := range pub.jobs {
		codes[j.Data["Code"].(string)] = true
	}
	latest := pub.lastCode()
	for code := range codes {
		if code == latest {
			continue
		}
		if _, _, err := svc.VerifySignup(ctx, "a@b.com", code); !errors.Is(err, ErrOTPMismatch) {
			t.Errorf("VerifySignup(stale %s) error = %v, want ErrOTPMismatch", code, err)
		}
	}
	if _, _, err := svc.VerifySignup(ctx, "a@b.com", latest); err != nil {
		t.Errorf("VerifySignup(latest) error = %v", err)
	}
}

func TestResend_ConcurrentIssueStaysConsistent(t *testing.T) {
	svc, repo, _ := newTestAuth(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Email: "a@b.com", Name: "Al"}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Resend(ctx, "a@b.com"); err != nil {
				t.Errorf("Resend() error = %v", err)
			}
		}()
	}
	wg.Wait()

	// Whatever interleaving happened, the stored challenge is one complete
	// (hash, expiry) pair and the latest dispatched code verifies.
	u, err := repo.GetByEmail(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if u.Challenge == nil || u.Challenge.CodeHash == "" || u.Challenge.ExpiresAt.IsZero() {
		t.Fatalf("challenge left half-written: %+v", u.Challenge)
	}
	// Publish order is not the update order across goroutines, so probe every
	// dispatched code: exactly one (the last writer) verifies, and consuming it
	// clears the challenge for the rest.
	pub := svc.Pub.(*recordingPublisher)
	successes := 0
	for _, job := range pub.jobs {
		code, _ := job.Data["Code"].(string)
		if _, _, err := svc.VerifySignup(ctx, "a@b.com", code); err == nil {
			successes++
		}
	}
	if successes != 1 {
		t.Errorf("verified with %d dispatched codes, want exactly 1", successes)
	}
}

func TestResend_UnknownEmail(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	if _, err := svc.Resend(context.Background(), "ghost@b.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Resend(unknown) error = %v, want ErrUserNotFound", err)
	}
}

func TestSignup_DeliveryFailureKeepsChallenge(t *testing.T) {
	svc, repo, pub := newTestAuth(t)
	ctx := context.Background()
	pub.fail = errPublishBoom

	if _, err := svc.Signup(ctx, SignupInput{Email: "a@b.com", Name: "Al"}); !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("Signup() error = %v, want ErrDeliveryFailed", err)
	}

	// The committed challenge survives the failed send and can be resent.
	u, err := repo.GetByEmail(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("record not persisted before delivery: %v", err)
	}
	if u.Challenge == nil {
		t.Fatal("challenge lost on delivery failure")
	}

	pub.fail = nil
	if _, err := svc.Resend(ctx, "a@b.com"); err != nil {
		t.Fatalf("Resend() after delivery failure error = %v", err)
	}
	if _, _, err := svc.VerifySignup(ctx, "a@b.com", pub.lastCode()); err != nil {
		t.Errorf("VerifySignup() after resend error = %v", err)
	}
}

func TestProfile(t *testing.T) {
	svc, _, _ := newTestAuth(t)
	ctx := context.Background()

	u := mustSignupAndVerify(t, svc, "a@b.com", "Al")

	got, err := svc.Profile(ctx, u.ID)
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if got.Email != "a@b.com" {
		t.Errorf("Profile().Email = %q, want %q", got.Email, "a@b.com")
	}

	if _, err := svc.Profile(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Profile(unknown id) error = %v, want ErrUserNotFound", err)
	}
}

func mustSignupAndVerify(t *testing.T, svc *AuthService, email, name string) *entity.User {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.Signup(ctx, SignupInput{Email: email, Name: name}); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	pub := svc.Pub.(*recordingPublisher)
	u, _, err := svc.VerifySignup(ctx, email, pub.lastCode())
	if err != nil {
		t.Fatalf("VerifySignup() error = %v", err)
	}
	return u
}

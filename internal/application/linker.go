package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/notely-app/notely-api/internal/domain/entity"
	"github.com/notely-app/notely-api/internal/domain/repository"
)

// ExternalProfile is an identity asserted by the external provider.
type ExternalProfile struct {
	ProviderID string
	Email      string
	Name       string
}

// Linker reconciles a provider-asserted identity with the local store.
// Provider identities are trusted: the resulting record is always Verified,
// and no OTP is ever issued here.
type Linker struct {
	Repo   repository.UserRepository
	Logger *logrus.Logger
}

func NewLinker(repo repository.UserRepository, logger *logrus.Logger) *Linker {
	return &Linker{Repo: repo, Logger: logger}
}

// Resolve finds or creates the identity for the asserted profile:
//  1. match on provider id -> done, backfilling a missing name;
//  2. match on email -> attach the provider id and force Verified (implicit
//     merge of a pre-existing OTP account);
//  3. otherwise create a new Verified record.
func (l *Linker) Resolve(ctx context.Context, p ExternalProfile) (*entity.User, error) {
	if p.ProviderID == "" {
		return nil, errors.New("provider profile missing id")
	}
	email := entity.NormalizeEmail(p.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(p.Name)

	u, err := l.Repo.GetByGoogleID(ctx, p.ProviderID)
	switch {
	case err == nil:
		if u.Name == "" && name != "" {
			return l.Repo.Update(ctx, u.Email, func(u *entity.User) error {
				u.Name = name
				return nil
			})
		}
		return u, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	_, err = l.Repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if l.Logger != nil {
			l.Logger.WithField("email", email).Info("linking provider identity to existing account")
		}
		return l.Repo.Update(ctx, email, func(u *entity.User) error {
			pid := p.ProviderID
			u.GoogleID = &pid
			u.Verified = true
			if u.Name == "" {
				u.Name = name
			}
			return nil
		})
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	pid := p.ProviderID
	u = &entity.User{Email: email, Name: name, GoogleID: &pid, Verified: true}
	if err := l.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

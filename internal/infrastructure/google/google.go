package google

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// Profile is the externally-asserted identity returned by Google.
type Profile struct {
	ID    string
	Email string
	Name  string
}

// Client drives the OAuth authorization-code flow against Google and fetches
// the asserted profile once a code has been exchanged.
type Client struct {
	cfg *oauth2.Config
}

func NewClient(clientID, clientSecret, redirectURL string) (*Client, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}
	return &Client{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     googleoauth.Endpoint,
		},
	}, nil
}

// AuthCodeURL returns the consent-screen URL carrying the state nonce.
func (c *Client) AuthCodeURL(state string) string {
	return c.cfg.AuthCodeURL(state)
}

// FetchProfile exchanges the callback code and reads the userinfo endpoint.
func (c *Client) FetchProfile(ctx context.Context, code string) (Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tok, err := c.cfg.Exchange(ctx, code)
	if err != nil {
		return Profile{}, err
	}

	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(c.cfg.TokenSource(ctx, tok)))
	if err != nil {
		return Profile{}, err
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return Profile{}, err
	}
	if info.Id == "" || info.Email == "" {
		return Profile{}, errors.New("google userinfo missing id or email")
	}
	return Profile{ID: info.Id, Email: info.Email, Name: info.Name}, nil
}

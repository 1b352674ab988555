package token

import (
	"context"
	"strconv"
	"time"

	"blog-service/internal/user"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("blog-service/internal/auth/token")

// Issuer builds tokens for a user. It never touches storage.
type Issuer struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(codec *Codec, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccessToken embeds the subject and email.
func (i *Issuer) IssueAccessToken(u *user.User) (string, error) {
	c := &Claims{Email: u.Email}
	c.Subject = strconv.FormatInt(u.ID, 10)
	return i.codec.Sign(c, Access, i.accessTTL)
}

// IssueRefreshToken embeds the subject only.
func (i *Issuer) IssueRefreshToken(u *user.User) (string, error) {
	c := &Claims{}
	c.Subject = strconv.FormatInt(u.ID, 10)
	return i.codec.Sign(c, Refresh, i.refreshTTL)
}

// IssueTokenPair signs both tokens concurrently and returns once both are
// done. A cancelled ctx abandons issuance.
func (i *Issuer) IssueTokenPair(ctx context.Context, u *user.User) (Pair, error) {
	ctx, span := tracer.Start(ctx, "token.issue_pair")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", u.ID))

	var pair Pair
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		t, err := i.IssueAccessToken(u)
		pair.AccessToken = t
		return err
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		t, err := i.IssueRefreshToken(u)
		pair.RefreshToken = t
		return err
	})
	if err := g.Wait(); err != nil {
		span.SetStatus(codes.Error, "issue failed")
		return Pair{}, err
	}
	return pair, nil
}

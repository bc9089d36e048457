package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/model"
	"github.com/Asibe-Cheta/soundbridge-sub008/internal/repo/postgres"
)

type ProfileStore interface {
	GetByID(ctx context.Context, userID string) (model.Profile, error)
}

type InAppStore interface {
	Insert(ctx context.Context, n model.Notification) error
}

type emailChannel interface {
	Send(ctx context.Context, to, subject, html string) error
}

type pushChannel interface {
	Send(ctx context.Context, token, title, body string, data map[string]any) error
}

type ChannelResult struct {
	Channel string
	Skipped bool
	Err     error
}

type Dispatcher struct {
	profiles ProfileStore
	inApp    InAppStore
	email    emailChannel
	push     pushChannel
	logger   *zap.Logger
	newID    func() string
}

type Dependencies struct {
	Profiles ProfileStore
	InApp    InAppStore
	Email    *EmailSender
	Push     *PushSender
}

func NewDispatcher(deps Dependencies, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		profiles: deps.Profiles,
		inApp:    deps.InApp,
		logger:   logger,
		newID:    uuid.NewString,
	}
	if deps.Email != nil {
		d.email = deps.Email
	}
	if deps.Push != nil {
		d.push = deps.Push
	}
	return d
}

// Dispatch fans the payload out to email, in-app and push at the same
// time. Channels fail independently; the caller gets one result per
// channel and never an overall error, so a dead email relay cannot
// block the moderation pipeline.
func (d *Dispatcher) Dispatch(ctx context.Context, p Payload) []ChannelResult {
	if !p.Type.Valid() {
		return []ChannelResult{{Channel: "dispatch", Err: fmt.Errorf("invalid notification type %q", p.Type)}}
	}

	var profile model.Profile
	var profileErr error
	if d.profiles != nil {
		profile, profileErr = d.profiles.GetByID(ctx, p.UserID)
		if profileErr != nil && !errors.Is(profileErr, postgres.ErrProfileNotFound) {
			d.logger.Warn("notification profile lookup failed",
				zap.String("user_id", p.UserID),
				zap.Error(profileErr),
			)
		}
	}

	results := make([]ChannelResult, 3)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		results[0] = d.sendEmail(gctx, p, profile, profileErr)
		return nil
	})
	g.Go(func() error {
		results[1] = d.sendInApp(gctx, p)
		return nil
	})
	g.Go(func() error {
		results[2] = d.sendPush(gctx, p, profile, profileErr)
		return nil
	})
	_ = g.Wait()

	for _, res := range results {
		if res.Err != nil {
			d.logger.Warn("notification channel failed",
				zap.String("channel", res.Channel),
				zap.String("type", string(p.Type)),
				zap.String("track_id", p.TrackID),
				zap.Error(res.Err),
			)
		}
	}

	return results
}

func (d *Dispatcher) sendEmail(ctx context.Context, p Payload, profile model.Profile, profileErr error) ChannelResult {
	res := ChannelResult{Channel: "email"}
	if d.email == nil {
		res.Skipped = true
		return res
	}
	if errors.Is(profileErr, postgres.ErrProfileNotFound) {
		res.Skipped = true
		return res
	}
	if profileErr != nil {
		res.Err = fmt.Errorf("load profile: %w", profileErr)
		return res
	}
	if profile.Email == "" {
		res.Skipped = true
		return res
	}

	username := profile.Username
	if username == "" {
		username = "there"
	}

	tmpl := emailFor(p, username)
	res.Err = d.email.Send(ctx, profile.Email, tmpl.Subject, tmpl.HTML)
	return res
}

func (d *Dispatcher) sendInApp(ctx context.Context, p Payload) ChannelResult {
	res := ChannelResult{Channel: "in_app"}
	if d.inApp == nil {
		res.Skipped = true
		return res
	}

	res.Err = d.inApp.Insert(ctx, model.Notification{
		ID:      d.newID(),
		UserID:  p.UserID,
		Type:    p.Type,
		Title:   "Content Moderation",
		Message: inAppMessageFor(p),
		Link:    "/track/" + p.TrackID,
	})
	return res
}

func (d *Dispatcher) sendPush(ctx context.Context, p Payload, profile model.Profile, profileErr error) ChannelResult {
	res := ChannelResult{Channel: "push"}
	if d.push == nil {
		res.Skipped = true
		return res
	}
	if errors.Is(profileErr, postgres.ErrProfileNotFound) {
		res.Skipped = true
		return res
	}
	if profileErr != nil {
		res.Err = fmt.Errorf("load profile: %w", profileErr)
		return res
	}
	if profile.PushToken == "" {
		res.Skipped = true
		return res
	}

	msg := pushMessageFor(p)
	res.Err = d.push.Send(ctx, profile.PushToken, msg.Title, msg.Body, map[string]any{
		"trackId": p.TrackID,
		"type":    "moderation",
	})
	return res
}

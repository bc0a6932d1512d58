package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"brankas/internal/core"
	"brankas/internal/log"
	"brankas/internal/objectstore"
	"brankas/internal/storage"
)

// ProfileService serves the user's profile and preferences.
type ProfileService struct {
	store   storage.Store
	objects objectstore.Store
	cache   Invalidator
	logger  *log.Logger
}

func NewProfileService(store storage.Store, objects objectstore.Store, cache Invalidator, logger *log.Logger) *ProfileService {
	return &ProfileService{store: store, objects: objects, cache: orNoop(cache), logger: orDiscard(logger, log.ComponentApp)}
}

// loadSettings returns the stored settings or the defaults when the user has
// none yet.
func loadSettings(ctx context.Context, g storage.ProfileGateway, userID string) (core.Settings, error) {
	st, err := g.GetSettings(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.DefaultSettings(userID), nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return st, nil
}

// Settings returns the user's settings, creating the default row on first read.
func (s *ProfileService) Settings(ctx context.Context, userID string) (core.Settings, error) {
	var st core.Settings
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		cur, err := g.GetSettings(ctx, userID)
		if err == nil {
			st = cur
			return nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("load settings: %w", err)
		}
		if st, err = g.SaveSettings(ctx, core.DefaultSettings(userID)); err != nil {
			return fmt.Errorf("save default settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Settings{}, err
	}
	return st, nil
}

type SettingsInput struct {
	Language         *string     `json:"language"`
	Theme            *core.Theme `json:"theme"`
	PayrollDate      *int        `json:"payroll_date"`
	WarningThreshold *int        `json:"budget_warning_threshold"`
}

// UpdateSettings applies the non-nil fields. The payroll date reshapes the
// monthly dashboard period, so cached views are dropped.
func (s *ProfileService) UpdateSettings(ctx context.Context, userID string, in SettingsInput) (core.Settings, error) {
	var saved core.Settings
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		st, err := loadSettings(ctx, g, userID)
		if err != nil {
			return err
		}
		if in.Language != nil {
			st.Language = strings.TrimSpace(*in.Language)
		}
		if in.Theme != nil {
			st.Theme = *in.Theme
		}
		if in.PayrollDate != nil {
			st.PayrollDate = *in.PayrollDate
		}
		if in.WarningThreshold != nil {
			st.WarningThreshold = *in.WarningThreshold
		}
		if err := st.Validate(); err != nil {
			return err
		}
		if saved, err = g.SaveSettings(ctx, st); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Settings{}, err
	}
	s.cache.Invalidate(userID)
	s.logger.InfoContext(ctx, "Settings updated", log.FieldUserID, userID)
	return saved, nil
}

// loadProfile returns the stored profile or an empty one for new users.
func loadProfile(ctx context.Context, g storage.ProfileGateway, userID string) (core.Profile, error) {
	p, err := g.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Profile{UserID: userID}, nil
	}
	if err != nil {
		return core.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

func (s *ProfileService) Profile(ctx context.Context, userID string) (core.Profile, error) {
	return loadProfile(ctx, s.store, userID)
}

type ProfileInput struct {
	FullName  *string    `json:"full_name"`
	Phone     *string    `json:"phone"`
	Location  *string    `json:"location"`
	BirthDate *core.Date `json:"birth_date"`
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (core.Profile, error) {
	var saved core.Profile
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		p, err := loadProfile(ctx, g, userID)
		if err != nil {
			return err
		}
		if in.FullName != nil {
			p.FullName = strings.TrimSpace(*in.FullName)
		}
		if in.Phone != nil {
			p.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.Location != nil {
			p.Location = strings.TrimSpace(*in.Location)
		}
		if in.BirthDate != nil {
			p.BirthDate = *in.BirthDate
		}
		if saved, err = g.SaveProfile(ctx, p); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Profile{}, err
	}
	s.cache.Invalidate(userID)
	return saved, nil
}

// UploadAvatar stores the image under the user's fixed avatar key and
// points the profile at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID, filename, contentType string, r io.Reader) (core.Profile, error) {
	if s.objects == nil {
		return core.Profile{}, errors.New("avatar upload: no object store configured")
	}
	key := objectstore.AvatarKey(userID, filename)
	if err := s.objects.Upload(ctx, key, r, contentType); err != nil {
		s.logger.ErrorContext(ctx, "Avatar upload failed", log.FieldUserID, userID, log.FieldObjectKey, key, log.FieldError, err)
		return core.Profile{}, fmt.Errorf("upload avatar: %w", err)
	}
	url := s.objects.PublicURL(key)

	var saved core.Profile
	err := s.store.WithTx(ctx, func(g storage.Gateway) error {
		p, err := loadProfile(ctx, g, userID)
		if err != nil {
			return err
		}
		p.AvatarURL = url
		if saved, err = g.SaveProfile(ctx, p); err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Profile{}, err
	}
	s.cache.Invalidate(userID)
	s.logger.InfoContext(ctx, "Avatar uploaded", log.FieldUserID, userID, log.FieldObjectKey, key)
	return saved, nil
}

// Package journal resolves roles from PINs and manages journal entries.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pbaille/journal/internal/domain"
	"github.com/rs/zerolog"
)

const (
	pinRule   = "len=4,number"
	labelRule = "min=1,max=20"
)

// Service implements the journal operations on top of a Repository
type Service struct {
	repo     Repository
	log      zerolog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates a Service
func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		log:      log.With().Str("component", "journal").Logger(),
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// VerifyPin returns the role whose current PIN is pin
func (s *Service) VerifyPin(ctx context.Context, pin string) (role domain.Role, err error) {
	defer func() { observe("verify_pin", err) }()
	return s.resolve(ctx, pin, domain.ErrInvalidPIN)
}

// ChangePin replaces the PIN of the role identified by oldPin
func (s *Service) ChangePin(ctx context.Context, oldPin, newPin string) (err error) {
	defer func() { observe("change_pin", err) }()

	role, err := s.resolve(ctx, oldPin, domain.ErrInvalidCurrentPIN)
	if err != nil {
		return err
	}

	if s.validate.Var(newPin, pinRule) != nil {
		return domain.ErrMalformedPIN
	}

	owner, err := s.repo.RoleByPin(ctx, newPin)
	switch {
	case err == nil && owner != role:
		return domain.ErrPINInUse
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("check pin: %w", err)
	}

	if err := s.repo.SetPin(ctx, role, newPin); err != nil {
		return err
	}

	s.log.Info().Str("role", string(role)).Msg("pin changed")
	return nil
}

// ChangeLabel sets the display name of the role identified by pin
func (s *Service) ChangeLabel(ctx context.Context, pin, label string) (err error) {
	defer func() { observe("change_label", err) }()

	role, err := s.resolve(ctx, pin, domain.ErrInvalidPIN)
	if err != nil {
		return err
	}

	if s.validate.Var(label, labelRule) != nil {
		return domain.ErrInvalidLabel
	}

	if err := s.repo.SetLabel(ctx, role, label); err != nil {
		return err
	}

	s.log.Info().Str("role", string(role)).Msg("label changed")
	return nil
}

// GetLabels returns the display name of both roles
func (s *Service) GetLabels(ctx context.Context) (labels *domain.Labels, err error) {
	defer func() { observe("get_labels", err) }()

	byRole, err := s.repo.Labels(ctx)
	if err != nil {
		return nil, err
	}

	you, ok := byRole[domain.RoleYou]
	if !ok {
		return nil, fmt.Errorf("label missing for role %q", domain.RoleYou)
	}
	her, ok := byRole[domain.RoleHer]
	if !ok {
		return nil, fmt.Errorf("label missing for role %q", domain.RoleHer)
	}

	return &domain.Labels{You: you, Her: her}, nil
}

// AddEntry stores a new entry stamped with the current server time.
// An empty author means RoleYou.
func (s *Service) AddEntry(ctx context.Context, content, author string) (entry *domain.Entry, err error) {
	defer func() { observe("add_entry", err) }()

	if strings.TrimSpace(content) == "" {
		return nil, domain.ErrEmptyContent
	}
	role, err := domain.ParseRole(author)
	if err != nil {
		return nil, err
	}

	return s.repo.AddEntry(ctx, content, role, s.now())
}

// ListEntries returns every entry, newest first
func (s *Service) ListEntries(ctx context.Context) (entries []domain.Entry, err error) {
	defer func() { observe("list_entries", err) }()
	return s.repo.ListEntries(ctx, 0, 0)
}

// RecentEntries returns at most limit entries, newest first
func (s *Service) RecentEntries(ctx context.Context, limit int) (entries []domain.Entry, err error) {
	defer func() { observe("list_entries", err) }()
	return s.repo.ListEntries(ctx, limit, 0)
}

// GetEntry returns a single entry
func (s *Service) GetEntry(ctx context.Context, id int64) (entry *domain.Entry, err error) {
	defer func() { observe("get_entry", err) }()
	return s.repo.GetEntry(ctx, id)
}

// DeleteEntry removes an entry. Missing ids are reported as domain.ErrNotFound.
func (s *Service) DeleteEntry(ctx context.Context, id int64) (err error) {
	defer func() { observe("delete_entry", err) }()
	return s.repo.DeleteEntry(ctx, id)
}

// UpdateEntry replaces the content of an entry. The author is only changed
// when author is non-empty.
func (s *Service) UpdateEntry(ctx context.Context, id int64, content, author string) (err error) {
	defer func() { observe("update_entry", err) }()

	if strings.TrimSpace(content) == "" {
		return domain.ErrEmptyContent
	}

	var role *domain.Role
	if author != "" {
		r, err := domain.ParseRole(author)
		if err != nil {
			return err
		}
		role = &r
	}

	return s.repo.UpdateEntry(ctx, id, content, role)
}

func (s *Service) resolve(ctx context.Context, pin string, unauthorized error) (domain.Role, error) {
	role, err := s.repo.RoleByPin(ctx, pin)
	if errors.Is(err, domain.ErrNotFound) {
		return "", unauthorized
	}
	if err != nil {
		return "", fmt.Errorf("resolve pin: %w", err)
	}
	return role, nil
}

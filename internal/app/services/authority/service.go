package authority

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/draco-labs/draco-protocol/internal/app/storage"
	"github.com/draco-labs/draco-protocol/pkg/logger"
)

var (
	ErrAlreadyInitialized = errors.New("authority already initialized")
	ErrInvalidAuthority   = errors.New("caller is not the protocol authority")
)

// Service owns the single protocol authority record. Privileged operations
// consult Enforce before mutating anything.
type Service struct {
	store storage.AuthorityStore
	log   *logger.Logger
}

// New constructs an authority service.
func New(store storage.AuthorityStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("authority")
	}
	return &Service{store: store, log: log}
}

// Initialize records the first caller as the protocol authority. There is
// exactly one; any later call fails.
func (s *Service) Initialize(ctx context.Context, caller string) error {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return fmt.Errorf("caller is required")
	}

	if _, err := s.store.GetAuthority(ctx); err == nil {
		return ErrAlreadyInitialized
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("load authority: %w", err)
	}

	if err := s.store.SaveAuthority(ctx, caller); err != nil {
		return fmt.Errorf("save authority: %w", err)
	}
	s.log.Infof("protocol authority initialized to %s", caller)
	return nil
}

// Enforce fails unless the caller is the recorded authority.
func (s *Service) Enforce(ctx context.Context, caller string) error {
	current, err := s.store.GetAuthority(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidAuthority
		}
		return fmt.Errorf("load authority: %w", err)
	}
	if current != caller {
		return ErrInvalidAuthority
	}
	return nil
}

// Get returns the current authority account.
func (s *Service) Get(ctx context.Context) (string, error) {
	return s.store.GetAuthority(ctx)
}

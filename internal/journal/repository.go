package journal

import (
	"context"
	"time"

	"github.com/pbaille/journal/internal/domain"
)

// Repository is the storage the Service runs on. Implementations return
// domain.ErrNotFound when a role or pin is unknown and domain.ErrEntryNotFound
// when an entry id matches no row.
type Repository interface {
	RoleByPin(ctx context.Context, pin string) (domain.Role, error)
	SetPin(ctx context.Context, role domain.Role, pin string) error
	Labels(ctx context.Context) (map[domain.Role]string, error)
	SetLabel(ctx context.Context, role domain.Role, label string) error
	AddEntry(ctx context.Context, content string, author domain.Role, createdAt time.Time) (*domain.Entry, error)
	GetEntry(ctx context.Context, id int64) (*domain.Entry, error)
	ListEntries(ctx context.Context, limit, offset int) ([]domain.Entry, error)
	UpdateEntry(ctx context.Context, id int64, content string, author *domain.Role) error
	DeleteEntry(ctx context.Context, id int64) error
}

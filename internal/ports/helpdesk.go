package ports

import (
	"context"

	"github.com/fixboard/fixboard/internal/domain"
)

// HelpdeskService defines the interface to the authoritative ticket backend.
// The backend is the single source of truth; every method is a network call.
type HelpdeskService interface {
	// ListTickets retrieves the full current ticket set
	ListTickets(ctx context.Context) ([]domain.Ticket, error)

	// UpdateTicket applies a partial update and returns the accepted ticket.
	// The backend may reject the patch; rejections are classified errors,
	// never silent local state.
	UpdateTicket(ctx context.Context, id int64, patch domain.TicketPatch) (*domain.Ticket, error)

	// ListStaff retrieves the roster of agents that can be assigned tickets
	ListStaff(ctx context.Context) ([]domain.Agent, error)

	// Profile retrieves the identity of the operator owning the credential
	Profile(ctx context.Context) (*domain.Agent, error)
}

package partner

import "context"

// Repository defines the interface for partner and commission persistence
type Repository interface {
	CreatePartner(ctx context.Context, p *Partner) error
	GetPartner(ctx context.Context, id string) (*Partner, error)

	CreateCommission(ctx context.Context, c *Commission) error

	// CommissionExistsForPayment reports whether a commission row already
	// exists for the payment, keeping the calculator exactly-once.
	CommissionExistsForPayment(ctx context.Context, paymentID string) (bool, error)

	ListCommissionsByPartner(ctx context.Context, partnerID string) ([]*Commission, error)
}

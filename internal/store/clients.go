package store

import (
	"context"

	"github.com/shopspring/decimal"

	"agentdesk/internal/apperr"
	"agentdesk/internal/models"
)

// ClientPatch holds editable client fields. The owning agent is fixed at creation.
type ClientPatch struct {
	FirstName        *string
	LastName         *string
	NationalID       *string
	PhoneNumber      *string
	InsuranceProduct *string
	PaymentMethod    *string
	FeePaid          *decimal.Decimal
	Location         *string
}

func (p ClientPatch) columns() map[string]any {
	cols := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			cols[col] = *v
		}
	}
	set("first_name", p.FirstName)
	set("last_name", p.LastName)
	set("national_id", p.NationalID)
	set("phone_number", p.PhoneNumber)
	set("insurance_product", p.InsuranceProduct)
	set("payment_method", p.PaymentMethod)
	set("location", p.Location)
	if p.FeePaid != nil {
		cols["fee_paid"] = decimal.NewNullDecimal(*p.FeePaid)
	}
	return cols
}

func (s *Store) CreateClient(ctx context.Context, c *models.Client) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *Store) GetClient(ctx context.Context, id uint) (*models.Client, error) {
	var c models.Client
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, lookupErr(err, "Client")
	}
	return &c, nil
}

// ListClients returns clients whose agent passes f, newest first.
func (s *Store) ListClients(ctx context.Context, f OwnerFilter) ([]models.Client, error) {
	var clients []models.Client
	err := f.apply(s.db.WithContext(ctx), "agent_id").
		Order("created_at DESC, id DESC").
		Find(&clients).Error
	return clients, err
}

func (s *Store) UpdateClient(ctx context.Context, id uint, patch ClientPatch) (*models.Client, error) {
	if _, err := s.GetClient(ctx, id); err != nil {
		return nil, err
	}
	if cols := patch.columns(); len(cols) > 0 {
		if err := s.db.WithContext(ctx).Model(&models.Client{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return nil, err
		}
	}
	return s.GetClient(ctx, id)
}

func (s *Store) DeleteClient(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Client{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Client")
	}
	return nil
}

package pack

import (
	"fmt"
	"time"

	"github.com/orris-inc/keyhub/internal/domain/key"
)

// Pack is the purchasable template a batch of keys is issued from.
type Pack struct {
	id               uint
	name             string
	price            int64
	periodDays       int
	trafficLimit     int64
	count            int
	activationWindow time.Duration
	connectionLimit  int
	panelType        string
	createdAt        time.Time
	updatedAt        time.Time
}

type PackParams struct {
	Name             string
	Price            int64
	PeriodDays       int
	TrafficLimit     int64
	Count            int
	ActivationWindow time.Duration
	ConnectionLimit  int
	PanelType        string
}

func NewPack(p PackParams) (*Pack, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	connLimit := p.ConnectionLimit
	if connLimit <= 0 {
		connLimit = 1
	}
	return &Pack{
		name:             p.Name,
		price:            p.Price,
		periodDays:       p.PeriodDays,
		trafficLimit:     p.TrafficLimit,
		count:            p.Count,
		activationWindow: p.ActivationWindow,
		connectionLimit:  connLimit,
		panelType:        p.PanelType,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

func (p PackParams) validate() error {
	if p.Price < 0 {
		return fmt.Errorf("price cannot be negative")
	}
	if p.PeriodDays <= 0 {
		return fmt.Errorf("period must be at least one day")
	}
	if p.Count <= 0 {
		return fmt.Errorf("pack must issue at least one key")
	}
	if p.ActivationWindow <= 0 {
		return fmt.Errorf("activation window must be positive")
	}
	if p.PanelType == "" {
		return fmt.Errorf("panel type is required")
	}
	return nil
}

func ReconstructPack(id uint, p PackParams, createdAt, updatedAt time.Time) (*Pack, error) {
	if id == 0 {
		return nil, fmt.Errorf("pack ID cannot be zero")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &Pack{
		id:               id,
		name:             p.Name,
		price:            p.Price,
		periodDays:       p.PeriodDays,
		trafficLimit:     p.TrafficLimit,
		count:            p.Count,
		activationWindow: p.ActivationWindow,
		connectionLimit:  p.ConnectionLimit,
		panelType:        p.PanelType,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}, nil
}

func (p *Pack) ID() uint                        { return p.id }
func (p *Pack) Name() string                    { return p.name }
func (p *Pack) Price() int64                    { return p.price }
func (p *Pack) PeriodDays() int                 { return p.periodDays }
func (p *Pack) TrafficLimit() int64             { return p.trafficLimit }
func (p *Pack) Count() int                      { return p.count }
func (p *Pack) ActivationWindow() time.Duration { return p.activationWindow }
func (p *Pack) ConnectionLimit() int            { return p.connectionLimit }
func (p *Pack) PanelType() string               { return p.panelType }
func (p *Pack) CreatedAt() time.Time            { return p.createdAt }
func (p *Pack) UpdatedAt() time.Time            { return p.updatedAt }

func (p *Pack) SetID(id uint) {
	p.id = id
}

func (p *Pack) IsFree() bool {
	return p.price == 0
}

// KeyTemplate is the limit set every key of batchID inherits.
func (p *Pack) KeyTemplate(batchID uint) key.Template {
	return key.Template{
		BatchID:         batchID,
		TrafficLimit:    p.trafficLimit,
		PeriodDays:      p.periodDays,
		ConnectionLimit: p.connectionLimit,
		PanelType:       p.panelType,
	}
}

// IssueKeys builds exactly Count issued keys for batchID, each with an
// activation deadline of now plus the activation window.
func (p *Pack) IssueKeys(batchID uint, now time.Time) ([]*key.Key, error) {
	keys := make([]*key.Key, 0, p.count)
	tpl := p.KeyTemplate(batchID)
	for i := 0; i < p.count; i++ {
		k, err := key.NewKey(tpl, p.activationWindow, now)
		if err != nil {
			return nil, fmt.Errorf("failed to build key %d of %d: %w", i+1, p.count, err)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

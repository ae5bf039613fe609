package reseller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrResellerNotFound = errors.New("reseller not found")
	ErrModuleNotFound   = errors.New("bot module not found")
)

// Reseller distributes keys through their own storefront bot, or through the
// default bot when they have none. Instructions are markdown appended to key
// delivery messages.
type Reseller struct {
	id           uint
	name         string
	botToken     string
	lang         string
	instructions string
	createdAt    time.Time
	updatedAt    time.Time
}

func NewReseller(name, botToken, lang string) (*Reseller, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("reseller name is required")
	}
	now := time.Now().UTC()
	return &Reseller{
		name:      name,
		botToken:  strings.TrimSpace(botToken),
		lang:      lang,
		createdAt: now,
		updatedAt: now,
	}, nil
}

func ReconstructReseller(id uint, name, botToken, lang string, createdAt, updatedAt time.Time) *Reseller {
	return &Reseller{
		id:        id,
		name:      name,
		botToken:  botToken,
		lang:      lang,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (r *Reseller) ID() uint             { return r.id }
func (r *Reseller) Name() string         { return r.name }
func (r *Reseller) BotToken() string     { return r.botToken }
func (r *Reseller) Lang() string         { return r.lang }
func (r *Reseller) CreatedAt() time.Time { return r.createdAt }
func (r *Reseller) UpdatedAt() time.Time { return r.updatedAt }
func (r *Reseller) SetID(id uint)        { r.id = id }
func (r *Reseller) HasOwnBot() bool      { return r.botToken != "" }
func (r *Reseller) Instructions() string { return r.instructions }

func (r *Reseller) SetInstructions(md string) {
	r.instructions = strings.TrimSpace(md)
}

// BotModule is an embedded bot a reseller plugs into a third-party storefront.
// Batches sold through it are delivered with its credentials.
type BotModule struct {
	id          uint
	resellerID  uint
	botToken    string
	botUsername string
	createdAt   time.Time
}

func NewBotModule(resellerID uint, botToken, botUsername string) (*BotModule, error) {
	if resellerID == 0 {
		return nil, fmt.Errorf("reseller ID is required")
	}
	if strings.TrimSpace(botToken) == "" {
		return nil, fmt.Errorf("module bot token is required")
	}
	return &BotModule{
		resellerID:  resellerID,
		botToken:    strings.TrimSpace(botToken),
		botUsername: botUsername,
		createdAt:   time.Now().UTC(),
	}, nil
}

func ReconstructBotModule(id, resellerID uint, botToken, botUsername string, createdAt time.Time) *BotModule {
	return &BotModule{
		id:          id,
		resellerID:  resellerID,
		botToken:    botToken,
		botUsername: botUsername,
		createdAt:   createdAt,
	}
}

func (m *BotModule) ID() uint             { return m.id }
func (m *BotModule) ResellerID() uint     { return m.resellerID }
func (m *BotModule) BotToken() string     { return m.botToken }
func (m *BotModule) BotUsername() string  { return m.botUsername }
func (m *BotModule) CreatedAt() time.Time { return m.createdAt }
func (m *BotModule) SetID(id uint)        { m.id = id }

type Repository interface {
	Create(ctx context.Context, r *Reseller) error
	GetByID(ctx context.Context, id uint) (*Reseller, error)
	CreateModule(ctx context.Context, m *BotModule) error
	GetModuleByID(ctx context.Context, id uint) (*BotModule, error)
}

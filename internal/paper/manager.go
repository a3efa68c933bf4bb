package paper

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradeforge/stratsim/internal/engine"
	"github.com/tradeforge/stratsim/internal/logger"
	"github.com/tradeforge/stratsim/internal/simulator"
	"github.com/tradeforge/stratsim/internal/types"
	"github.com/tradeforge/stratsim/pkg/errors"
)

// SessionConfig describes a new paper-trading session.
type SessionConfig struct {
	Pair           string               `yaml:"pair" validate:"required"`
	Strategy       types.StrategySpec   `yaml:"strategy"`
	InitialBalance float64              `yaml:"initial_balance" validate:"gt=0"`
	FeeRate        float64              `yaml:"fee_rate" validate:"gte=0,lt=1"`
	Sizing         simulator.SizingMode `yaml:"sizing" validate:"oneof=fixed compounding"`
	SizeFraction   float64              `yaml:"size_fraction" validate:"gte=0,lte=1"`
	// WindowSize caps the rolling candle buffer; 0 means DefaultWindowSize.
	WindowSize int `yaml:"window_size" validate:"gte=0"`
}

// SessionManager owns the live drivers. Sessions have an explicit lifecycle:
// started via StartSession, fed through the returned driver, released via
// StopSession. State outlives the process in the store; the manager only
// tracks what is currently running.
type SessionManager struct {
	mu       sync.Mutex
	store    Store
	eng      *engine.Engine
	log      *logger.Logger
	validate *validator.Validate
	drivers  map[string]*Driver
}

// NewSessionManager creates a manager over the given store.
func NewSessionManager(store Store, eng *engine.Engine, log *logger.Logger) *SessionManager {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &SessionManager{
		mu:       sync.Mutex{},
		store:    store,
		eng:      eng,
		log:      log,
		validate: validator.New(),
		drivers:  make(map[string]*Driver),
	}
}

// StartSession validates the config, resolves the strategy, persists the new
// session and returns a running driver for it.
func (m *SessionManager) StartSession(ctx context.Context, cfg SessionConfig) (*Driver, error) {
	if err := m.validate.Struct(cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, "invalid session config", err)
	}

	// Resolve up front so a bad strategy fails at creation, not on the
	// first candle.
	if _, err := m.eng.Registry().Resolve(cfg.Strategy); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	state := SessionState{
		ID:             uuid.New().String(),
		Pair:           cfg.Pair,
		Strategy:       cfg.Strategy,
		InitialBalance: cfg.InitialBalance,
		Balance:        cfg.InitialBalance,
		Position:       types.Position{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := m.store.CreateSession(ctx, state); err != nil {
		return nil, err
	}

	driver, err := NewDriver(m.eng, m.store, m.log, state, cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.drivers[state.ID] = driver
	m.mu.Unlock()

	m.log.Info("paper session started",
		zap.String("session", state.ID),
		zap.String("pair", cfg.Pair),
		zap.String("strategy", cfg.Strategy.Slug),
	)

	return driver, nil
}

// ResumeSession loads a persisted session and attaches a fresh driver to it.
// The candle buffer starts empty, so the driver reports "collecting" until
// enough history has streamed in again.
func (m *SessionManager) ResumeSession(ctx context.Context, id string, cfg SessionConfig) (*Driver, error) {
	m.mu.Lock()
	if existing, ok := m.drivers[id]; ok {
		m.mu.Unlock()

		return existing, nil
	}
	m.mu.Unlock()

	state, err := m.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	driver, err := NewDriver(m.eng, m.store, m.log, state, cfg)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.drivers[id] = driver
	m.mu.Unlock()

	return driver, nil
}

// GetDriver returns the running driver for a session.
func (m *SessionManager) GetDriver(id string) (*Driver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	driver, ok := m.drivers[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeSessionNotFound, "no running driver for session %q", id)
	}

	return driver, nil
}

// StopSession stops the driver and forgets it. The persisted state stays in
// the store and the session can be resumed later.
func (m *SessionManager) StopSession(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	driver, ok := m.drivers[id]
	if !ok {
		return errors.Newf(errors.ErrCodeSessionNotFound, "no running driver for session %q", id)
	}

	driver.Stop()
	delete(m.drivers, id)

	m.log.Info("paper session stopped", zap.String("session", id))

	return nil
}

// StopAll stops every running driver. Called on shutdown.
func (m *SessionManager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, driver := range m.drivers {
		driver.Stop()
		delete(m.drivers, id)
	}
}

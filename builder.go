package goAccount

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goAccount/ident"
)

// Builder assembles an Account from its collaborators. Transport and
// ConfigStore are required; everything else has an in-process default.
type Builder struct {
	config    Config
	transport Transport
	store     ConfigStore
	bus       Bus
	ids       IDGenerator
	sync      Sync

	built bool
}

func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

func (b *Builder) WithTransport(t Transport) *Builder {
	b.transport = t
	return b
}

func (b *Builder) WithStore(s ConfigStore) *Builder {
	b.store = s
	return b
}

func (b *Builder) WithBus(bus Bus) *Builder {
	b.bus = bus
	return b
}

func (b *Builder) WithIDGenerator(g IDGenerator) *Builder {
	b.ids = g
	return b
}

func (b *Builder) WithSync(s Sync) *Builder {
	b.sync = s
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires defaults for the optional
// collaborators, loads the persisted identity from the store, and assigns a
// fresh owner hash when none was persisted yet.
func (b *Builder) Build() (*Account, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.transport == nil {
		return nil, errors.New("transport must be set")
	}
	if b.store == nil {
		return nil, errors.New("config store must be set")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	b.built = true

	bus := b.bus
	if bus == nil {
		bus = newMemBus()
	}
	ids := b.ids
	if ids == nil {
		ids = ident.New()
	}
	syncc := b.sync
	if syncc == nil {
		syncc = noopSync{}
	}

	metrics := NewMetrics(b.config.Metrics)
	registry := newRequestRegistry()
	registry.onSupersede = func() { metrics.Inc(MetricSuperseded) }

	a := &Account{
		config:    b.config,
		transport: b.transport,
		store:     b.store,
		ids:       ids,
		sync:      syncc,
		bus:       bus,
		state:     newSessionState(),
		registry:  registry,
		events:    newEventDispatcher(bus, b.config.Events),
		metrics:   metrics,
		now:       time.Now,
	}

	ctx := context.Background()
	a.state.setUsername(a.configGet(ctx, keyUsername))

	if ownerHash := a.configGet(ctx, keyOwnerHash); ownerHash != "" {
		a.state.setOwnerHash(ownerHash)
	} else {
		a.setOwner(ctx, ids.UUID(0))
	}

	return a, nil
}

// noopSync is the Sync used when no replication layer is wired.
type noopSync struct{}

func (noopSync) Disconnect() {}

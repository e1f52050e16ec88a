package impulse2d

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// WorldBuilder assembles a World. The zero configuration has default
// settings, no gravity, a no-op logger and sleeping enabled.
type WorldBuilder struct {
	gravity    mgl64.Vec2
	settings   Settings
	logger     Logger
	listener   ContactListener
	filter     ContactFilter
	allowSleep bool
}

func NewWorldBuilder() *WorldBuilder {
	return &WorldBuilder{
		settings:   DefaultSettings(),
		allowSleep: true,
	}
}

func (b *WorldBuilder) WithGravity(gravity mgl64.Vec2) *WorldBuilder {
	b.gravity = gravity
	return b
}

func (b *WorldBuilder) WithSettings(settings Settings) *WorldBuilder {
	b.settings = settings
	return b
}

func (b *WorldBuilder) WithLogger(logger Logger) *WorldBuilder {
	b.logger = logger
	return b
}

func (b *WorldBuilder) WithContactListener(listener ContactListener) *WorldBuilder {
	b.listener = listener
	return b
}

func (b *WorldBuilder) WithContactFilter(filter ContactFilter) *WorldBuilder {
	b.filter = filter
	return b
}

func (b *WorldBuilder) AllowSleeping(flag bool) *WorldBuilder {
	b.allowSleep = flag
	return b
}

func (b *WorldBuilder) Build() (*World, error) {
	if err := b.settings.Validate(); err != nil {
		return nil, fmt.Errorf("build world: %w", err)
	}

	logger := orNop(b.logger)
	listener := b.listener
	if listener == nil {
		listener = NopContactListener{}
	}

	w := &World{
		settings:        b.settings,
		logger:          logger,
		gravity:         b.gravity,
		bodyByID:        make(map[uuid.UUID]*Body),
		listener:        listener,
		allowSleep:      b.allowSleep,
		warmStarting:    b.settings.WarmStarting,
		autoClearForces: true,
	}
	w.contactManager = NewContactManager(NewBroadPhase(b.settings.BroadPhaseCellSize), b.filter, listener, logger)

	logger.Debugf("world built: gravity=%v cell=%g", b.gravity, b.settings.BroadPhaseCellSize)
	return w, nil
}

package world

import (
	"context"
	"sort"
	"sync"

	"github.com/verai-labs/verai/pkg/core"
	"github.com/verai-labs/verai/pkg/errors"
)

// PhysicsLayer partitions bodies for collision filtering.
type PhysicsLayer string

const (
	LayerDefault     PhysicsLayer = "default"
	LayerCombat      PhysicsLayer = "combat"
	LayerInteraction PhysicsLayer = "interaction"
	LayerTrigger     PhysicsLayer = "trigger"
	LayerProjectile  PhysicsLayer = "projectile"
)

// PhysicsProperties are the tunables of one rigid body.
type PhysicsProperties struct {
	Mass         float64
	Friction     float64
	Restitution  float64
	Kinematic    bool
	GravityScale float64
	Radius       float64
	Layer        PhysicsLayer
}

// DefaultPhysicsProperties returns the unit body.
func DefaultPhysicsProperties() PhysicsProperties {
	return PhysicsProperties{
		Mass:         1,
		Friction:     0.5,
		Restitution:  0.5,
		GravityScale: 1,
		Radius:       0.5,
		Layer:        LayerDefault,
	}
}

// Body is one simulated rigid body (sphere collider).
type Body struct {
	ID              string
	Props           PhysicsProperties
	Position        Vec3
	Velocity        Vec3
	AngularVelocity Vec3
	forces          Vec3
	torques         Vec3
	Awake           bool
}

// Collision reports a resolved contact between two bodies.
type Collision struct {
	A, B   string
	Normal Vec3
	Depth  float64
}

// maxSubsteps splits each update into fixed integration slices.
const maxSubsteps = 8

// Physics steps rigid bodies under gravity with sphere collisions.
// Bodies register and update concurrently with the tick loop, so the
// body map is lock-guarded.
type Physics struct {
	mu      sync.RWMutex
	gravity Vec3
	bodies  map[string]*Body
	emitter core.EventEmitter

	// CollisionChecks counts narrow-phase tests in the last update.
	CollisionChecks int
}

// NewPhysics creates a physics world with standard gravity.
func NewPhysics(emitter core.EventEmitter) *Physics {
	if emitter == nil {
		emitter = core.NoopEventEmitter{}
	}
	return &Physics{
		gravity: Vec3{0, -9.81, 0},
		bodies:  make(map[string]*Body),
		emitter: emitter,
	}
}

// SetGravity overrides the world gravity vector.
func (p *Physics) SetGravity(g Vec3) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gravity = g
}

// AddBody registers a body at a position.
func (p *Physics) AddBody(id string, props PhysicsProperties, position Vec3) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.bodies[id]; exists {
		return errors.New(errors.CodeInvalidState, "body already exists", nil).
			WithContext("body_id", id)
	}
	if props.Mass <= 0 {
		return errors.New(errors.CodeInvalidInput, "mass must be positive", nil).
			WithContext("body_id", id)
	}
	p.bodies[id] = &Body{
		ID:       id,
		Props:    props,
		Position: position,
		Awake:    true,
	}
	return nil
}

// RemoveBody drops a body from the world.
func (p *Physics) RemoveBody(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.bodies, id)
}

// Body returns a body by id.
func (p *Physics) Body(id string) (*Body, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bodyLocked(id)
}

func (p *Physics) bodyLocked(id string) (*Body, error) {
	body, ok := p.bodies[id]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "body not found", nil).
			WithContext("body_id", id)
	}
	return body, nil
}

// ApplyForce accumulates a force on a body; a non-nil point also applies
// torque about the center of mass.
func (p *Physics) ApplyForce(id string, force Vec3, point *Vec3) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	body, err := p.bodyLocked(id)
	if err != nil {
		return err
	}
	body.forces = body.forces.Add(force)
	if point != nil {
		r := point.Sub(body.Position)
		body.torques = body.torques.Add(r.Cross(force))
	}
	return nil
}

// Update advances the world by delta seconds in fixed substeps using
// semi-implicit Euler integration, then resolves sphere collisions.
func (p *Physics) Update(ctx context.Context, delta float64) ([]core.Event, error) {
	if delta <= 0 {
		return nil, nil
	}

	substep := delta / maxSubsteps
	contacts := make(map[[2]string]Collision)

	p.mu.Lock()
	for i := 0; i < maxSubsteps; i++ {
		p.integrate(substep)
		for _, col := range p.detectCollisions() {
			p.resolveCollision(col)
			key := [2]string{col.A, col.B}
			contacts[key] = col
		}
	}
	p.mu.Unlock()

	var events []core.Event
	for _, col := range contacts {
		event := core.NewEvent(core.EventPhysicsContact, col.A, col.B, map[string]any{
			"depth": col.Depth,
		})
		events = append(events, event)
		p.emitter.Emit(ctx, event)
	}
	return events, nil
}

func (p *Physics) integrate(dt float64) {
	for _, body := range p.bodies {
		if body.Props.Kinematic || !body.Awake {
			continue
		}

		accel := body.forces.Scale(1 / body.Props.Mass).
			Add(p.gravity.Scale(body.Props.GravityScale))
		body.Velocity = body.Velocity.Add(accel.Scale(dt))
		body.AngularVelocity = body.AngularVelocity.Add(body.torques.Scale(dt / body.Props.Mass))

		damping := 1 - body.Props.Friction*dt
		if damping < 0 {
			damping = 0
		}
		body.Velocity = body.Velocity.Scale(damping)
		body.AngularVelocity = body.AngularVelocity.Scale(damping)

		body.Position = body.Position.Add(body.Velocity.Scale(dt))

		// Ground plane at y=0.
		if body.Position.Y < body.Props.Radius {
			body.Position.Y = body.Props.Radius
			if body.Velocity.Y < 0 {
				body.Velocity.Y = -body.Velocity.Y * body.Props.Restitution
			}
		}

		body.forces = Vec3{}
		body.torques = Vec3{}
	}
}

// detectCollisions runs a sorted pairwise sphere test.
func (p *Physics) detectCollisions() []Collision {
	ids := make([]string, 0, len(p.bodies))
	for id := range p.bodies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var collisions []Collision
	p.CollisionChecks = 0
	for i, aID := range ids {
		for _, bID := range ids[i+1:] {
			p.CollisionChecks++
			a, b := p.bodies[aID], p.bodies[bID]

			diff := b.Position.Sub(a.Position)
			dist := diff.Length()
			minDist := a.Props.Radius + b.Props.Radius
			if dist >= minDist || dist == 0 {
				continue
			}
			collisions = append(collisions, Collision{
				A:      aID,
				B:      bID,
				Normal: diff.Normalize(),
				Depth:  minDist - dist,
			})
		}
	}
	return collisions
}

// resolveCollision separates the pair and exchanges momentum along the
// contact normal with combined restitution.
func (p *Physics) resolveCollision(col Collision) {
	a, b := p.bodies[col.A], p.bodies[col.B]

	// Positional correction split by mobility.
	switch {
	case a.Props.Kinematic && b.Props.Kinematic:
		return
	case a.Props.Kinematic:
		b.Position = b.Position.Add(col.Normal.Scale(col.Depth))
	case b.Props.Kinematic:
		a.Position = a.Position.Sub(col.Normal.Scale(col.Depth))
	default:
		half := col.Normal.Scale(col.Depth / 2)
		a.Position = a.Position.Sub(half)
		b.Position = b.Position.Add(half)
	}

	relative := b.Velocity.Sub(a.Velocity)
	along := relative.Dot(col.Normal)
	if along > 0 {
		return // already separating
	}

	restitution := (a.Props.Restitution + b.Props.Restitution) / 2
	invMassA, invMassB := 0.0, 0.0
	if !a.Props.Kinematic {
		invMassA = 1 / a.Props.Mass
	}
	if !b.Props.Kinematic {
		invMassB = 1 / b.Props.Mass
	}
	if invMassA+invMassB == 0 {
		return
	}

	j := -(1 + restitution) * along / (invMassA + invMassB)
	impulse := col.Normal.Scale(j)
	a.Velocity = a.Velocity.Sub(impulse.Scale(invMassA))
	b.Velocity = b.Velocity.Add(impulse.Scale(invMassB))
}

// BodyCount reports how many bodies are simulated.
func (p *Physics) BodyCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.bodies)
}

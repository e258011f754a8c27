// Package phase manages zone instances: the list of engine shards a
// player can switch between, and the combat-gated switch decision. The
// handoff itself rides the inter-engine bus; this package only decides.
package phase

// ZoneInstance describes one engine shard hosting a zone.
type ZoneInstance struct {
	EngineId    string
	Address     string
	ZoneId      string
	PlayerCount int
	Current     bool
}

// ResultKind tags the outcome of a phase command.
type ResultKind int

const (
	ResultInstanceList ResultKind = iota
	ResultBlocked
	ResultNoOp
	ResultInitiated
)

// Result is the outcome of a phase command.
type Result struct {
	Kind      ResultKind
	Instances []ZoneInstance // ResultInstanceList
	Reason    string         // ResultBlocked / ResultNoOp
	TargetId  string         // ResultInitiated
}

// Manager tracks the known instances for this engine's deployment.
type Manager struct {
	engineId  string
	instances []ZoneInstance
}

// NewManager creates a manager for the engine hosting it.
func NewManager(engineId string) *Manager {
	return &Manager{engineId: engineId}
}

// SetInstances replaces the known instance list (boot config or a
// discovery refresh).
func (m *Manager) SetInstances(instances []ZoneInstance) {
	m.instances = instances
}

// EngineId returns the hosting engine's id.
func (m *Manager) EngineId() string { return m.engineId }

// List returns the known instances with the current engine marked.
func (m *Manager) List() []ZoneInstance {
	out := make([]ZoneInstance, len(m.instances))
	for i, inst := range m.instances {
		inst.Current = inst.EngineId == m.engineId
		out[i] = inst
	}
	return out
}

// Switch decides a phase command: no target lists instances, switching
// while in combat is blocked, switching to the current engine is a
// no-op, and anything else initiates a handoff to target.
func (m *Manager) Switch(target string, inCombat bool) Result {
	if target == "" {
		return Result{Kind: ResultInstanceList, Instances: m.List()}
	}
	if inCombat {
		return Result{Kind: ResultBlocked, Reason: "You are in combat."}
	}
	if target == m.engineId {
		return Result{Kind: ResultNoOp, Reason: "You are already on that instance."}
	}
	for _, inst := range m.instances {
		if inst.EngineId == target {
			return Result{Kind: ResultInitiated, TargetId: target}
		}
	}
	return Result{Kind: ResultNoOp, Reason: "No such instance."}
}

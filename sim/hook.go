package sim

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site that a
// hook is triggered.
type HookCtx struct {
	// Domain is the hookable object that is raising this hook.
	Domain Hookable

	// Pos identifies the stage of the round the hook is firing from.
	Pos *HookPos

	// Item carries the primary subject associated with the hook.
	Item any

	// Detail holds optional auxiliary data; hook sites may leave it nil.
	Detail any
}

// Hookable defines an object that accept Hooks.
type Hookable interface {
	// AcceptHook registers a hook.
	AcceptHook(hook Hook)

	// NumHooks returns the number of hooks registered.
	NumHooks() int

	// InvokeHook triggers the registered Hooks.
	InvokeHook(ctx HookCtx)
}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// HookFunc adapts a function into a Hook.
type HookFunc func(ctx HookCtx)

// Func calls f.
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookPosRoundStart triggers before the candidates of a round are collected.
// The item is the round number.
var HookPosRoundStart = &HookPos{Name: "RoundStart"}

// HookPosCandidateDropped triggers for every proposal dropped during
// aggregation. The item is the error describing it.
var HookPosCandidateDropped = &HookPos{Name: "CandidateDropped"}

// HookPosBeforeDispatch triggers after an event is selected and before the
// owning module applies it. The item is the selected round.
var HookPosBeforeDispatch = &HookPos{Name: "BeforeDispatch"}

// HookPosAfterDispatch triggers after the owning module applied an event and
// time has advanced. The item is the dispatched round.
var HookPosAfterDispatch = &HookPos{Name: "AfterDispatch"}

// HookPosNoEligibleEvents triggers when a round finds no candidate. The item is
// the NoEligibleEventsError.
var HookPosNoEligibleEvents = &HookPos{Name: "NoEligibleEvents"}

// A HookableBase provides some utility function for other type that implement
// the Hookable interface.
type HookableBase struct {
	hookList []Hook
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	h := new(HookableBase)
	h.hookList = make([]Hook, 0)

	return h
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hookList)
}

// AcceptHook register a hook.
//
// Hooks are expected to be registered before the engine starts running.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hookList = append(h.hookList, hook)
}

// InvokeHook triggers the register Hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hookList {
		hook.Func(ctx)
	}
}

var _ Hookable = (*HookableBase)(nil)

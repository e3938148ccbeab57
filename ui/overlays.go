package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlaySelectionBoxes OverlayID = "selection_boxes"
	OverlayHeadings       OverlayID = "headings"
	OverlayBlendAngles    OverlayID = "blend_angles"
	OverlayHideDisabled   OverlayID = "hide_disabled"
	OverlayPerf           OverlayID = "perf"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID       OverlayID
	Name     string
	Key      int32 // 0 = no key
	KeyLabel string
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with the standard overlays. Selection
// boxes start enabled.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{enabled: make(map[OverlayID]bool)}
	reg.Register(OverlayDescriptor{ID: OverlaySelectionBoxes, Name: "Parent boxes", Key: rl.KeyB, KeyLabel: "B"})
	reg.Register(OverlayDescriptor{ID: OverlayHeadings, Name: "Headings", Key: rl.KeyH, KeyLabel: "H"})
	reg.Register(OverlayDescriptor{ID: OverlayBlendAngles, Name: "Slip angles", Key: rl.KeyA, KeyLabel: "A"})
	reg.Register(OverlayDescriptor{ID: OverlayHideDisabled, Name: "Hide disabled", Key: rl.KeyD, KeyLabel: "D"})
	reg.Register(OverlayDescriptor{ID: OverlayPerf, Name: "Perf", Key: rl.KeyP, KeyLabel: "P"})
	reg.SetEnabled(OverlaySelectionBoxes, true)
	return reg
}

// Register adds an overlay to the registry, disabled.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay and returns its new state.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	r.enabled[id] = !r.enabled[id]
	return r.enabled[id]
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	if _, ok := r.enabled[id]; ok {
		r.enabled[id] = enabled
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// All returns all registered overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// HandleKeys toggles every overlay whose key was pressed this frame.
func (r *OverlayRegistry) HandleKeys() {
	for _, desc := range r.descriptors {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			r.Toggle(desc.ID)
		}
	}
}

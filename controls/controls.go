package controls

import (
	"errors"
	"fmt"
	"sync"
)

// Handler errors.
var (
	// ErrMissingControl indicates a control required by the current job
	// has never been set.
	ErrMissingControl = errors.New("required control not set")

	// ErrWrongType indicates a stored control value does not have the
	// type the control ID requires.
	ErrWrongType = errors.New("control value has wrong type")
)

// ID identifies one control.
type ID uint32

// Decode parameter-set controls.
const (
	IDMPEG2Sequence ID = 0x0100 + iota
	IDMPEG2Picture
	IDMPEG2Quantisation
)

const (
	IDH264SPS ID = 0x0200 + iota
	IDH264PPS
	IDH264ScalingMatrix
	IDH264SliceParams
	IDH264PredWeights
	IDH264DecodeParams
)

const (
	IDHEVCSPS ID = 0x0300 + iota
	IDHEVCPPS
	IDHEVCScalingMatrix
	IDHEVCSliceParams
	IDHEVCEntryPointOffsets
	IDHEVCDecodeParams
)

const (
	IDVP8Frame ID = 0x0400 + iota
)

// Encode scalar controls.
const (
	IDEncH264Profile ID = 0x0500 + iota
	IDEncH264Level
	IDEncH264EntropyMode
	IDEncH264MinQP
	IDEncH264MaxQP
	IDEncH264IFrameQP
	IDEncH264PFrameQP
	IDEncH264ChromaQPIndexOffset
	IDEncH264LoopFilterMode
	IDEncH264LoopFilterAlpha
	IDEncH264LoopFilterBeta
	IDEncGOPSize
	IDEncGOPClosure
	IDEncIPeriod
	IDEncForceKeyFrame
	IDEncPrependSPSPPSToIDR
	IDEncVUISAREnable
	IDEncVUISARIdc
	IDEncVUIExtSARWidth
	IDEncVUIExtSARHeight
)

// ChangeFunc observes a successful control store.
type ChangeFunc func(id ID)

// Handler stores control values for one session.
//
// A Handler is safe for concurrent use. Change observers let external
// collaborators watch stores; engines themselves react through their
// CtrlPrepare operation.
type Handler struct {
	mu       sync.RWMutex
	values   map[ID]interface{}
	onChange []ChangeFunc
}

// NewHandler creates an empty control handler.
func NewHandler() *Handler {
	return &Handler{values: make(map[ID]interface{})}
}

// Set stores a control value and notifies change observers.
func (h *Handler) Set(id ID, value interface{}) {
	h.mu.Lock()
	h.values[id] = value
	observers := h.onChange
	h.mu.Unlock()

	for _, fn := range observers {
		fn(id)
	}
}

// Get returns the stored value for id, or ErrMissingControl.
func (h *Handler) Get(id ID) (interface{}, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	value, ok := h.values[id]
	if !ok {
		return nil, fmt.Errorf("control %#x: %w", uint32(id), ErrMissingControl)
	}
	return value, nil
}

// OnChange registers a change observer.
func (h *Handler) OnChange(fn ChangeFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// Int returns a stored integer control.
func (h *Handler) Int(id ID) (int32, error) {
	value, err := h.Get(id)
	if err != nil {
		return 0, err
	}

	i, ok := value.(int32)
	if !ok {
		return 0, fmt.Errorf("control %#x: %w", uint32(id), ErrWrongType)
	}
	return i, nil
}

// IntDefault returns a stored integer control, or def when unset.
func (h *Handler) IntDefault(id ID, def int32) int32 {
	i, err := h.Int(id)
	if err != nil {
		return def
	}
	return i
}

// Bool returns a stored boolean control, false when unset.
func (h *Handler) Bool(id ID) bool {
	value, err := h.Get(id)
	if err != nil {
		return false
	}

	b, ok := value.(bool)
	return ok && b
}

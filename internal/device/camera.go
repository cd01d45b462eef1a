package device

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/scope-sim-core/internal/acquisition"
	"github.com/nerrad567/scope-sim-core/internal/setting"
)

// Exposure limits in milliseconds.
const (
	MinExposureMs     = 0.1
	MaxExposureMs     = 1000.0
	DefaultExposureMs = 100.0
)

// Camera is the simulated camera. Every image it emits, snapped or
// sequenced, carries the packed setting log as its payload.
type Camera struct {
	base
	hub    *Hub
	engine *acquisition.Engine

	exposure *setting.Setting[float64]
	binning  *setting.Setting[int64]

	snapMu    sync.Mutex
	snapBuf   []byte
	snapCount uint64
}

// NewCamera creates a camera attached to the hub. Sequence frames are
// delivered to sink.
func NewCamera(name string, hub *Hub, sink acquisition.FrameSink) *Camera {
	c := &Camera{
		base: newBase(name, KindCamera, hub.Log()),
		hub:  hub,
	}
	c.engine = acquisition.NewEngine(name, c.generate, sink)
	return c
}

// Engine exposes the camera's acquisition engine for event wiring.
func (c *Camera) Engine() *acquisition.Engine { return c.engine }

// Initialize creates the camera's settings.
func (c *Camera) Initialize() error {
	log := c.Log()
	c.exposure = setting.NewBounded[float64](log, c, "Exposure", DefaultExposureMs, MinExposureMs, MaxExposureMs)
	c.binning = setting.NewBounded[int64](log, c, "Binning", 1, 1, 1)
	c.addSettings(c.exposure, c.binning)
	c.markInitialized()
	return nil
}

// Shutdown stops any running acquisition before releasing the device.
func (c *Camera) Shutdown() error {
	if err := c.engine.Stop(); err != nil {
		return fmt.Errorf("stopping acquisition: %w", err)
	}
	return c.base.Shutdown()
}

// SetExposure sets the exposure time in milliseconds.
func (c *Camera) SetExposure(ms float64) error {
	if !c.Initialized() {
		return ErrNotInitialized
	}
	return c.exposure.Set(ms)
}

// Exposure returns the exposure time in milliseconds.
func (c *Camera) Exposure() float64 { return c.exposure.Get() }

// SetBinning sets the binning factor. Only 1 is supported.
func (c *Camera) SetBinning(factor int64) error {
	if !c.Initialized() {
		return ErrNotInitialized
	}
	return c.binning.Set(factor)
}

// Binning returns the binning factor.
func (c *Camera) Binning() int64 { return c.binning.Get() }

// SetROI is not supported; the camera always captures the full frame.
func (c *Camera) SetROI(x, y, width, height int64) error {
	return ErrUnsupported
}

// ROI returns the full-frame region.
func (c *Camera) ROI() (x, y, width, height int64) {
	w, h, _ := c.hub.Geometry()
	return 0, 0, w, h
}

// SnapImage captures a single still. The image payload is the setting log
// packed and reset, so the snap drains every entry recorded since the last
// emitted image.
func (c *Camera) SnapImage() error {
	if !c.Initialized() {
		return ErrNotInitialized
	}

	g := c.Log().Guard()
	g.MarkBusy(c.Name())
	g.Release()

	w, h, bpp := c.hub.Geometry()
	buf := make([]byte, w*h*bpp)

	c.snapMu.Lock()
	defer c.snapMu.Unlock()

	if _, err := c.Log().PackAndReset(buf, c.Name(), false, c.snapCount, 0); err != nil {
		return fmt.Errorf("packing snap payload: %w", err)
	}
	c.snapBuf = buf
	c.snapCount++
	return nil
}

// ImageBuffer returns a copy of the last snapped image, or ErrNoImage when
// nothing has been snapped yet.
func (c *Camera) ImageBuffer() ([]byte, error) {
	c.snapMu.Lock()
	defer c.snapMu.Unlock()
	if c.snapBuf == nil {
		return nil, ErrNoImage
	}
	out := make([]byte, len(c.snapBuf))
	copy(out, c.snapBuf)
	return out, nil
}

// StartSequence begins a finite acquisition of count frames.
func (c *Camera) StartSequence(count uint64, stopOnOverflow bool) error {
	if !c.Initialized() {
		return ErrNotInitialized
	}
	return c.engine.Start(true, count, stopOnOverflow)
}

// StartContinuousSequence begins an acquisition that runs until stopped.
func (c *Camera) StartContinuousSequence(stopOnOverflow bool) error {
	if !c.Initialized() {
		return ErrNotInitialized
	}
	return c.engine.Start(false, 0, stopOnOverflow)
}

// StopSequence halts the acquisition and returns the run's error, if any.
func (c *Camera) StopSequence() error {
	return c.engine.Stop()
}

// IsCapturing reports whether a sequence worker is generating frames.
func (c *Camera) IsCapturing() bool {
	return c.engine.IsCapturing()
}

// generate produces one sequence frame for the acquisition engine.
func (c *Camera) generate(cumulative, index uint64) (acquisition.Frame, error) {
	w, h, bpp := c.hub.Geometry()
	buf := make([]byte, w*h*bpp)

	if _, err := c.Log().PackAndReset(buf, c.Name(), true, cumulative, index); err != nil {
		return acquisition.Frame{}, fmt.Errorf("packing frame payload: %w", err)
	}

	return acquisition.Frame{
		Device:        c.Name(),
		Data:          buf,
		Width:         int(w),
		Height:        int(h),
		BytesPerPixel: int(bpp),
		Sequence:      true,
		Cumulative:    cumulative,
		Index:         index,
		Metadata: map[string]string{
			"exposure_ms": strconv.FormatFloat(c.exposure.Peek(), 'g', -1, 64),
			"binning":     strconv.FormatInt(c.binning.Peek(), 10),
		},
		CapturedAt: time.Now().UTC(),
	}, nil
}

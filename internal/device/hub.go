package device

import (
	"fmt"

	"github.com/nerrad567/scope-sim-core/internal/seqlog"
	"github.com/nerrad567/scope-sim-core/internal/setting"
)

// Default camera geometry, adjustable before the hub initializes.
const (
	DefaultImageWidth         = 512
	DefaultImageHeight        = 512
	DefaultImageBytesPerPixel = 1
)

// Hub is the root device. It owns the shared setting log and the image
// geometry every camera inherits, and it names the peripheral roster a host
// can construct.
type Hub struct {
	base

	width, height, bytesPerPixel int64

	imageWidth         *setting.Setting[int64]
	imageHeight        *setting.Setting[int64]
	imageBytesPerPixel *setting.Setting[int64]
}

// NewHub creates the hub with a fresh setting log and default geometry.
func NewHub(name string) *Hub {
	return &Hub{
		base:          newBase(name, KindHub, seqlog.New()),
		width:         DefaultImageWidth,
		height:        DefaultImageHeight,
		bytesPerPixel: DefaultImageBytesPerPixel,
	}
}

// SetGeometry adjusts the image geometry the settings are created with.
// Only valid before Initialize.
func (h *Hub) SetGeometry(width, height, bytesPerPixel int64) error {
	if h.Initialized() {
		return setting.ErrInvalidState
	}
	if width < 16 || width > 4096 || height < 16 || height > 4096 {
		return fmt.Errorf("%w: geometry %dx%d", setting.ErrOutOfRange, width, height)
	}
	if bytesPerPixel < 1 || bytesPerPixel > 4 {
		return fmt.Errorf("%w: %d bytes per pixel", setting.ErrOutOfRange, bytesPerPixel)
	}
	h.width, h.height, h.bytesPerPixel = width, height, bytesPerPixel
	return nil
}

// Initialize creates the hub's pre-init geometry settings.
func (h *Hub) Initialize() error {
	log := h.Log()
	h.imageWidth = setting.NewBounded[int64](log, h, "ImageWidth", h.width, 16, 4096).PreInitOnly()
	h.imageHeight = setting.NewBounded[int64](log, h, "ImageHeight", h.height, 16, 4096).PreInitOnly()
	h.imageBytesPerPixel = setting.NewBounded[int64](log, h, "ImageBytesPerPixel", h.bytesPerPixel, 1, 4).PreInitOnly()
	h.addSettings(h.imageWidth, h.imageHeight, h.imageBytesPerPixel)
	h.markInitialized()
	return nil
}

// Geometry returns the configured image dimensions. Reads are not recorded
// in the log; this is sizing plumbing, not device traffic.
func (h *Hub) Geometry() (width, height, bytesPerPixel int64) {
	if h.imageWidth == nil {
		return h.width, h.height, h.bytesPerPixel
	}
	return h.imageWidth.Peek(), h.imageHeight.Peek(), h.imageBytesPerPixel.Peek()
}

// InstalledDevices lists the peripheral names this hub offers, two of each
// kind.
func (h *Hub) InstalledDevices() []string {
	kinds := []Kind{KindCamera, KindShutter, KindXYStage, KindZStage, KindAFStage, KindAutofocus}
	names := make([]string, 0, len(kinds)*2)
	for _, k := range kinds {
		names = append(names, fmt.Sprintf("%s-0", k), fmt.Sprintf("%s-1", k))
	}
	return names
}

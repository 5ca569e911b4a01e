package backpack

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature wires the backpack gateway into the feature loader.
type Feature struct {
	handler *Handler
	enabled bool
}

// NewFeature creates the loadable backpack feature.
func NewFeature(service *Service, logger *zap.Logger, enabled bool) *Feature {
	return &Feature{
		handler: NewHandler(service, logger),
		enabled: enabled,
	}
}

// Handler exposes the handler, mainly so the host can install the
// update-check hook.
func (f *Feature) Handler() *Handler {
	return f.handler
}

// Name returns the feature identifier.
func (f *Feature) Name() string {
	return "backpack"
}

// IsEnabled reports whether the admin surface should be mounted.
func (f *Feature) IsEnabled() bool {
	return f.enabled
}

// Load registers the routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}

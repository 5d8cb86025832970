// Package loader wires feature packages onto the ops HTTP server.
//
// Each feature implements the Feature interface and decides for itself
// whether it is enabled; the daemon registers every known feature and the
// Manager loads the enabled ones onto the fiber router in registration
// order.
//
// # Feature Interface
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// # Manager
//
// The Manager struct holds the registry of available features. It handles:
//   - Registration of features via Register()
//   - Initialization and loading of enabled features via LoadAll()
//
// Keeping route registration behind this interface lets a feature such as
// 'ops' be developed and tested in isolation from the daemon bootstrap.
package loader

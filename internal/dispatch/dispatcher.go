package dispatch

// Dispatcher fans out decoded events to matching sink configurations.
type Dispatcher struct {
	configs []SinkConfig
}

// NewDispatcher creates a Dispatcher from sink configurations.
// Returns nil if configs is empty (callers should nil-check).
func NewDispatcher(configs []SinkConfig) *Dispatcher {
	if len(configs) == 0 {
		return nil
	}
	return &Dispatcher{configs: configs}
}

// Dispatch sends the notification to every sink whose Kinds list matches.
// A sink with no Kinds receives everything.
// Fires goroutines — does not block the caller.
func (d *Dispatcher) Dispatch(n Notification) {
	for _, cfg := range d.configs {
		if matches(cfg.Kinds, n.Kind) {
			go Send(cfg, n)
		}
	}
}

func matches(kinds []string, kind string) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

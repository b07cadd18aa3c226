package central

import "github.com/sirupsen/logrus"

// DiscoveryCoordinator runs attribute discovery for each session independently.
type DiscoveryCoordinator struct {
	stack  Stack
	logger *logrus.Logger
}

func NewDiscoveryCoordinator(stack Stack, logger *logrus.Logger) *DiscoveryCoordinator {
	return &DiscoveryCoordinator{stack: stack, logger: logger}
}

// Start launches discovery filtered by the session's service identifier.
// It returns false when the stack rejected the command; the session is then
// already Complete with nothing armed.
func (d *DiscoveryCoordinator) Start(s *Session) bool {
	log := d.logger.WithFields(logrus.Fields{
		"role":    s.Role(),
		"handle":  s.handle,
		"service": s.peer.Service,
	})

	s.discovery = DiscoveryInProgress
	if err := d.stack.Discover(s.handle, s.peer.Service); err != nil {
		log.WithError(err).Warn("Discovery request rejected, session will not poll")
		d.Terminate(s)
		return false
	}
	log.Debug("Discovery started")
	return true
}

// OnCharacteristic records a discovered characteristic if its type is declared for the role.
func (d *DiscoveryCoordinator) OnCharacteristic(s *Session, ev CharacteristicDiscovered) {
	if s.discovery != DiscoveryInProgress {
		d.logger.WithField("handle", s.handle).Debug("Characteristic outside discovery ignored")
		return
	}

	kind, ok := s.peer.KindOf(ev.Type)
	log := d.logger.WithFields(logrus.Fields{
		"role":         s.Role(),
		"handle":       s.handle,
		"uuid":         ev.Type,
		"value_handle": ev.ValueHandle,
	})
	if !ok {
		log.Debug("Unrecognized characteristic ignored")
		return
	}
	if prev, dup := s.handles[kind]; dup {
		log.WithField("previous", prev).Debug("Duplicate characteristic ignored")
		return
	}

	s.handles[kind] = ev.ValueHandle
	log.WithField("kind", kind).Debug("Characteristic resolved")
}

// Terminate completes discovery and returns the armed sequence:
// the declared kinds, in declared order, that were actually discovered.
func (d *DiscoveryCoordinator) Terminate(s *Session) []Kind {
	var armed []Kind
	for _, k := range s.peer.Kinds() {
		if _, ok := s.handles[k]; ok {
			armed = append(armed, k)
		}
	}
	s.discovery = DiscoveryComplete

	log := d.logger.WithFields(logrus.Fields{
		"role":   s.Role(),
		"handle": s.handle,
		"armed":  armed,
	})
	if len(armed) == 0 {
		log.Warn("Discovery found no declared characteristics, session will not poll")
	} else {
		log.Info("Discovery complete")
	}
	return armed
}

package adapter

import (
	"fmt"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
)

// NewMailTransport returns the [MailTransport] selected by
// adapterCfg.Protocol.
func NewMailTransport(adapterCfg config.ClientAdapter, logger *logger.Logger) (MailTransport, error) {
	switch adapterCfg.Protocol {
	case config.ProtocolJMAP, "":
		return NewJMAPTransport(adapterCfg, logger)
	case config.ProtocolIMAP:
		return NewIMAPTransport(adapterCfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, adapterCfg.Protocol)
	}
}

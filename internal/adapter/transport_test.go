package adapter

import (
	"testing"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailTransport(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ClientAdapter
		want    any
		wantErr error
	}{
		{
			name: "jmap",
			cfg:  config.ClientAdapter{Protocol: config.ProtocolJMAP, SessionURL: "https://mail.example.com/.well-known/jmap", RequestTimeout: time.Second},
			want: &jmapTransport{},
		},
		{
			name: "empty protocol defaults to jmap",
			cfg:  config.ClientAdapter{SessionURL: "https://mail.example.com/.well-known/jmap", RequestTimeout: time.Second},
			want: &jmapTransport{},
		},
		{
			name: "imap",
			cfg:  config.ClientAdapter{Protocol: config.ProtocolIMAP, IMAPAddress: "imap.example.com:993", TLS: true},
			want: &imapTransport{},
		},
		{
			name:    "unknown protocol",
			cfg:     config.ClientAdapter{Protocol: "pop3"},
			wantErr: ErrUnsupportedProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewMailTransport(tt.cfg, logger.Nop())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, tr)
		})
	}
}

func TestNewJMAPTransport_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "mail.example.com", "/relative", "://bad"} {
		_, err := NewJMAPTransport(config.ClientAdapter{SessionURL: raw}, logger.Nop())
		assert.Error(t, err, raw)
	}
}

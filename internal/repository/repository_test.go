package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaymentStatus(t *testing.T) {
	tests := []struct {
		status   PaymentStatus
		terminal bool
		valid    bool
	}{
		{StatusPending, false, true},
		{StatusPaid, true, true},
		{StatusRejected, true, true},
		{StatusCancelled, true, true},
		{PaymentStatus("refunded"), false, false},
		{PaymentStatus(""), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			require.Equal(t, tt.terminal, tt.status.IsTerminal())
			require.Equal(t, tt.valid, tt.status.Valid())
		})
	}
}

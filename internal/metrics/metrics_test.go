package metrics

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeSite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "https url", in: "https://Example.COM/path", want: "example.com"},
		{name: "bare host", in: "example.com", want: "example.com"},
		{name: "empty", in: "", want: "unknown"},
		{name: "garbage", in: "http://", want: "unknown"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, SanitizeSite(tc.in))
		})
	}
}

func TestHelpersDoNotPanicBeforeInit(t *testing.T) {
	// Helpers self-initialize; exercising them must be safe in any order.
	RunStarted()
	IncActiveRuns()
	SetRunProgress(45)
	StepVisited("https://www.google.com")
	RunFinished("completed")
	DecActiveRuns()
	IncWSClients()
	DecWSClients()
	require.NotNil(t, Handler())
}

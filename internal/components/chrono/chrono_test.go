package chrono

import (
	"context"
	"influence-backend/internal/components/telemetry"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStandardImpl(t *testing.T) {
	clock, err := NewStandardImpl("Asia/Shanghai")
	require.NoError(t, err)
	require.Equal(t, "Asia/Shanghai", clock.Location().String())
	require.Equal(t, clock.Location(), clock.Now().Location())

	utc, err := NewStandardImpl("")
	require.NoError(t, err)
	require.Equal(t, time.UTC, utc.Location())

	_, err = NewStandardImpl("Not/AZone")
	require.Error(t, err)
}

func TestDate(t *testing.T) {
	at := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	require.Equal(t, "2024-03-09", Date(at))

	shanghai, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	require.Equal(t, "2024-03-10", Date(at.In(shanghai)))
}

func TestCron(t *testing.T) {
	tel := telemetry.NewMemoryAPI()
	c := NewStandardCron(FixedImpl{At: time.Now().UTC()}, tel)
	defer c.Stop(context.Background())

	require.Error(t, c.Cron("not a spec", func() {}))

	fired := make(chan struct{}, 1)
	require.NoError(t, c.Cron("@every 1s", func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}))

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("cron job did not fire")
	}
}

package scheduler

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kenloughery/NYISO-Information-Dashboard-sub000/internal/registry"
)

const sampleRegistry = "NYISO RT LBMP,RT-LBMP,rtlbmp,rt,http://example.test/{YYYYMMDD}rt.csv,,,rt5,rt_lbmp\n" +
	"NYISO DA LBMP,DA-LBMP,dalbmp,da,http://example.test/{YYYYMMDD}damlbmp.csv,,,hourly,da_lbmp\n"

type fakeRunner struct {
	calls int32
	delay time.Duration
}

func (f *fakeRunner) ScrapeOne(ctx context.Context, source registry.Source, date time.Time, force bool) (interface{}, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
		}
	}
	return nil, nil
}

func TestScheduler_WarmUpFiresEverySourceOnce(t *testing.T) {
	reg, err := registry.Parse(newReader(sampleRegistry))
	require.NoError(t, err)

	fake := &fakeRunner{}
	s := &Scheduler{reg: reg, run: fake, poolSize: 4, log: zerolog.Nop(), sem: make(chan struct{}, 4), inFlight: map[string]bool{}}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	require.GreaterOrEqual(t, int(atomic.LoadInt32(&fake.calls)), 2)
}

func TestScheduler_SkipsOverlappingFireForSameSource(t *testing.T) {
	reg, err := registry.Parse(newReader("NYISO RT LBMP,RT-LBMP,rtlbmp,rt,http://example.test/{YYYYMMDD}rt.csv,,,rt5,rt_lbmp\n"))
	require.NoError(t, err)

	fake := &fakeRunner{delay: 300 * time.Millisecond}
	s := &Scheduler{reg: reg, run: fake, poolSize: 4, log: zerolog.Nop(), sem: make(chan struct{}, 4), inFlight: map[string]bool{}}

	source, _ := reg.Get("RT-LBMP")
	s.submit(context.Background(), source)
	s.submit(context.Background(), source) // should be skipped: still in-flight

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&fake.calls))

	s.wg.Wait()
}

func TestNextFire_CadenceRules(t *testing.T) {
	base := time.Date(2025, 11, 13, 10, 30, 0, 0, time.UTC)

	require.Equal(t, base.Add(5*time.Minute), nextFire(registry.CadenceRT5, base))
	require.Equal(t, base.Add(5*time.Minute), nextFire(registry.CadenceSnapshot, base))
	require.Equal(t, time.Date(2025, 11, 13, 11, 0, 0, 0, time.UTC), nextFire(registry.CadenceHourly, base))
	require.Equal(t, base.Add(6*time.Hour), nextFire(registry.CadenceMultiDaily, base))

	dailyBefore := time.Date(2025, 11, 13, 0, 30, 0, 0, time.UTC)
	require.Equal(t, time.Date(2025, 11, 13, 1, 0, 0, 0, time.UTC), nextFire(registry.CadenceDaily, dailyBefore))

	dailyAfter := time.Date(2025, 11, 13, 2, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2025, 11, 14, 1, 0, 0, 0, time.UTC), nextFire(registry.CadenceDaily, dailyAfter))
}

func newReader(s string) *strings.Reader { return strings.NewReader(s) }

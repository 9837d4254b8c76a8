package readiness

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/damianoneill/notesvc/pkg/domain/health"
	healthmocks "github.com/damianoneill/notesvc/pkg/domain/health/mocks"
	"github.com/damianoneill/notesvc/pkg/domain/logging"
	logmocks "github.com/damianoneill/notesvc/pkg/domain/logging/mocks"
	metricmocks "github.com/damianoneill/notesvc/pkg/domain/metrics/mocks"
)

var errRefused = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

func healthy(name string) health.Probe {
	return health.NewProbe(name, func(context.Context) error { return nil })
}

func failing(name string, err error) health.Probe {
	return health.NewProbe(name, func(context.Context) error { return err })
}

func delayed(name string, d time.Duration, err error) health.Probe {
	return health.NewProbe(name, func(context.Context) error {
		time.Sleep(d)
		return err
	})
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		probes  []health.Probe
		wantErr string
	}{
		{
			name:   "valid probes",
			probes: []health.Probe{healthy("cache"), healthy("database")},
		},
		{
			name:   "no probes",
			probes: nil,
		},
		{
			name:    "nil probe",
			probes:  []health.Probe{healthy("cache"), nil},
			wantErr: "probe 1 is nil",
		},
		{
			name:    "empty name",
			probes:  []health.Probe{healthy("")},
			wantErr: "probe 0 has no name",
		},
		{
			name:    "duplicate name",
			probes:  []health.Probe{healthy("cache"), healthy("cache")},
			wantErr: `duplicate probe name "cache"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, err := New(tt.probes)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				assert.Nil(t, agg)
				return
			}
			require.NoError(t, err)
			assert.Len(t, agg.Names(), len(tt.probes))
		})
	}
}

func TestNew_CopiesProbes(t *testing.T) {
	probes := []health.Probe{healthy("cache"), healthy("database")}
	agg, err := New(probes)
	require.NoError(t, err)

	probes[0] = healthy("replaced")
	assert.Equal(t, []string{"cache", "database"}, agg.Names())
}

func TestCheckReadiness_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		probes   []health.Probe
		wantOK   bool
		wantDeps []string
	}{
		{
			name:     "all healthy",
			probes:   []health.Probe{healthy("cache"), healthy("database"), healthy("search")},
			wantOK:   true,
			wantDeps: []string{"cache", "database", "search"},
		},
		{
			name:     "cache refused",
			probes:   []health.Probe{failing("cache", errRefused), healthy("database"), healthy("search")},
			wantOK:   false,
			wantDeps: []string{"database", "search"},
		},
		{
			name:     "all failing",
			probes:   []health.Probe{failing("cache", errRefused), failing("database", errRefused), failing("search", errRefused)},
			wantOK:   false,
			wantDeps: []string{},
		},
		{
			name:     "no probes",
			probes:   nil,
			wantOK:   true,
			wantDeps: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, err := New(tt.probes)
			require.NoError(t, err)

			report := agg.CheckReadiness(context.Background())
			assert.Equal(t, tt.wantOK, report.OK)
			assert.Equal(t, tt.wantDeps, report.Deps)
			assert.Len(t, report.Outcomes, len(tt.probes))

			succeeded := 0
			for _, o := range report.Outcomes {
				if o.Succeeded {
					succeeded++
					assert.Contains(t, report.Deps, o.Name)
				} else {
					assert.NotContains(t, report.Deps, o.Name)
					assert.Error(t, o.Err)
				}
			}
			assert.Len(t, report.Deps, succeeded)
		})
	}
}

func TestCheckReadiness_DeclarationOrder(t *testing.T) {
	agg, err := New([]health.Probe{
		delayed("cache", 80*time.Millisecond, nil),
		delayed("database", 40*time.Millisecond, nil),
		healthy("search"),
	})
	require.NoError(t, err)

	report := agg.CheckReadiness(context.Background())
	assert.True(t, report.OK)
	assert.Equal(t, []string{"cache", "database", "search"}, report.Deps)
}

func TestCheckReadiness_Concurrent(t *testing.T) {
	const delay = 100 * time.Millisecond
	agg, err := New([]health.Probe{
		delayed("cache", delay, nil),
		delayed("database", delay, nil),
		delayed("search", delay, nil),
	})
	require.NoError(t, err)

	start := time.Now()
	report := agg.CheckReadiness(context.Background())
	elapsed := time.Since(start)

	assert.True(t, report.OK)
	assert.Less(t, elapsed, 2*delay)
}

func TestCheckReadiness_Isolation(t *testing.T) {
	var calls atomic.Int32
	counting := func(name string) health.Probe {
		return health.NewProbe(name, func(context.Context) error {
			calls.Add(1)
			return nil
		})
	}

	agg, err := New([]health.Probe{
		failing("cache", errRefused),
		counting("database"),
		counting("search"),
	})
	require.NoError(t, err)

	report := agg.CheckReadiness(context.Background())
	assert.Equal(t, int32(2), calls.Load())
	assert.False(t, report.Outcomes[0].Succeeded)
	assert.True(t, report.Outcomes[1].Succeeded)
	assert.True(t, report.Outcomes[2].Succeeded)
}

func TestCheckReadiness_Panic(t *testing.T) {
	agg, err := New([]health.Probe{
		health.NewProbe("cache", func(context.Context) error { panic("nil client") }),
		healthy("database"),
	})
	require.NoError(t, err)

	var report health.Report
	require.NotPanics(t, func() {
		report = agg.CheckReadiness(context.Background())
	})

	assert.False(t, report.OK)
	assert.Equal(t, []string{"database"}, report.Deps)
	assert.ErrorContains(t, report.Outcomes[0].Err, "nil client")
}

func TestCheckReadiness_DetachesCancellation(t *testing.T) {
	type key struct{}
	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "trace"))
	cancel()

	agg, err := New([]health.Probe{
		health.NewProbe("cache", func(ctx context.Context) error {
			if ctx.Value(key{}) != "trace" {
				return errors.New("context value lost")
			}
			return ctx.Err()
		}),
	})
	require.NoError(t, err)

	report := agg.CheckReadiness(ctx)
	assert.True(t, report.OK)
}

func TestCheckReadiness_MockProbes(t *testing.T) {
	ctrl := gomock.NewController(t)

	cache := healthmocks.NewMockProbe(ctrl)
	cache.EXPECT().Name().Return("cache").AnyTimes()
	cache.EXPECT().Check(gomock.Any()).Return(nil)

	database := healthmocks.NewMockProbe(ctrl)
	database.EXPECT().Name().Return("database").AnyTimes()
	database.EXPECT().Check(gomock.Any()).Return(errRefused)

	agg, err := New([]health.Probe{cache, database})
	require.NoError(t, err)

	report := agg.CheckReadiness(context.Background())
	assert.False(t, report.OK)
	assert.Equal(t, []string{"cache"}, report.Deps)
}

func TestCheckReadiness_LogsAndMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := logmocks.NewMockLogger(ctrl)
	collector := metricmocks.NewMockCollector(ctrl)

	collector.EXPECT().CollectProbeMetrics("cache", false, gomock.Any())
	collector.EXPECT().CollectProbeMetrics("database", true, gomock.Any())
	collector.EXPECT().CollectProbeMetrics("search", true, gomock.Any())

	logger.EXPECT().WithContext(gomock.Any()).Return(logger)
	logger.EXPECT().WarnWith("Dependency probe failed", gomock.Any()).
		Do(func(_ string, fields logging.Fields) {
			assert.Equal(t, "cache", fields["dependency"])
			assert.Equal(t, errRefused.Error(), fields["error"])
			assert.NotEmpty(t, fields["duration"])
		})

	agg, err := New(
		[]health.Probe{failing("cache", errRefused), healthy("database"), healthy("search")},
		WithLogger(logger),
		WithMetrics(collector),
	)
	require.NoError(t, err)

	report := agg.CheckReadiness(context.Background())
	assert.False(t, report.OK)
	assert.Equal(t, []string{"database", "search"}, report.Deps)
}

func TestCheckReadiness_Repeatable(t *testing.T) {
	var fail atomic.Bool
	agg, err := New([]health.Probe{
		health.NewProbe("cache", func(context.Context) error {
			if fail.Load() {
				return errRefused
			}
			return nil
		}),
	})
	require.NoError(t, err)

	assert.True(t, agg.CheckReadiness(context.Background()).OK)
	fail.Store(true)
	assert.False(t, agg.CheckReadiness(context.Background()).OK)
	fail.Store(false)
	assert.True(t, agg.CheckReadiness(context.Background()).OK)
}

// renamingProbe reports its name once, then panics on any later Name call.
type renamingProbe struct {
	calls atomic.Int32
}

func (p *renamingProbe) Name() string {
	if p.calls.Add(1) > 1 {
		panic("name changed")
	}
	return "search"
}

func (p *renamingProbe) Check(context.Context) error { return nil }

func TestCheckReadiness_UsesNamesCapturedAtConstruction(t *testing.T) {
	agg, err := New([]health.Probe{healthy("cache"), &renamingProbe{}})
	require.NoError(t, err)

	var report health.Report
	require.NotPanics(t, func() {
		report = agg.CheckReadiness(context.Background())
	})

	assert.True(t, report.OK)
	assert.Equal(t, []string{"cache", "search"}, report.Deps)
	assert.Equal(t, []string{"cache", "search"}, agg.Names())
}

package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zz676/juice-index-sub001/internal/domain"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid default config",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name: "tick interval too short",
			config: Config{
				TickInterval:    500 * time.Millisecond,
				RunTimeout:      5 * time.Minute,
				ShutdownTimeout: 30 * time.Second,
			},
			wantErr: true,
		},
		{
			name: "run timeout too short",
			config: Config{
				TickInterval:    time.Minute,
				RunTimeout:      100 * time.Millisecond,
				ShutdownTimeout: 30 * time.Second,
			},
			wantErr: true,
		},
		{
			name: "shutdown timeout too short",
			config: Config{
				TickInterval:    time.Minute,
				RunTimeout:      5 * time.Minute,
				ShutdownTimeout: 0,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// fakeAutomations serves a fixed due list and records MarkRun calls.
type fakeAutomations struct {
	due    []domain.AutomationConfig
	marked []uuid.UUID
}

func (f *fakeAutomations) Create(ctx context.Context, cfg *domain.AutomationConfig) error {
	return nil
}

func (f *fakeAutomations) Update(ctx context.Context, cfg *domain.AutomationConfig) error {
	return nil
}

func (f *fakeAutomations) Get(ctx context.Context, id uuid.UUID) (*domain.AutomationConfig, error) {
	return nil, nil
}

func (f *fakeAutomations) ListDue(ctx context.Context, now time.Time) ([]domain.AutomationConfig, error) {
	return f.due, nil
}

func (f *fakeAutomations) MarkRun(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.marked = append(f.marked, id)
	return nil
}

// fakeHandler records runs and returns a canned error.
type fakeHandler struct {
	kind domain.AutomationKind
	runs int
	err  error
}

func (f *fakeHandler) Kind() domain.AutomationKind { return f.kind }

func (f *fakeHandler) Run(ctx context.Context, cfg domain.AutomationConfig, now time.Time) error {
	f.runs++
	return f.err
}

func newTestWorker(t *testing.T, automations *fakeAutomations) *Worker {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := New(automations, DefaultConfig(), logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return w
}

func publishConfig() domain.AutomationConfig {
	return domain.AutomationConfig{
		ID:                  uuid.New(),
		UserID:              uuid.New(),
		Kind:                domain.AutomationAutoPublish,
		Enabled:             true,
		Timezone:            "UTC",
		PollIntervalMinutes: 30,
	}
}

func TestTickRunsDueConfig(t *testing.T) {
	cfg := publishConfig()
	automations := &fakeAutomations{due: []domain.AutomationConfig{cfg}}
	w := newTestWorker(t, automations)

	handler := &fakeHandler{kind: domain.AutomationAutoPublish}
	w.Register(handler)

	w.tick(context.Background(), time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	if handler.runs != 1 {
		t.Errorf("handler runs = %d, want 1", handler.runs)
	}
	if len(automations.marked) != 1 || automations.marked[0] != cfg.ID {
		t.Errorf("marked = %v, want [%v]", automations.marked, cfg.ID)
	}
}

func TestTickSkipsPausedConfig(t *testing.T) {
	cfg := publishConfig()
	cfg.Schedules = []domain.PauseSchedule{
		{Enabled: true, Start: "00:00", End: "23:59"},
	}
	automations := &fakeAutomations{due: []domain.AutomationConfig{cfg}}
	w := newTestWorker(t, automations)

	handler := &fakeHandler{kind: domain.AutomationAutoPublish}
	w.Register(handler)

	w.tick(context.Background(), time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	if handler.runs != 0 {
		t.Errorf("handler runs = %d, want 0 for paused config", handler.runs)
	}
	if len(automations.marked) != 0 {
		t.Errorf("paused skip must not consume the run slot, marked = %v", automations.marked)
	}
}

func TestTickMarksFailedRun(t *testing.T) {
	cfg := publishConfig()
	automations := &fakeAutomations{due: []domain.AutomationConfig{cfg}}
	w := newTestWorker(t, automations)

	handler := &fakeHandler{kind: domain.AutomationAutoPublish, err: errors.New("upstream down")}
	w.Register(handler)

	w.tick(context.Background(), time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	if len(automations.marked) != 1 {
		t.Errorf("failed run must still consume the run slot, marked = %v", automations.marked)
	}
}

func TestTickQuotaLimitedRunAdvances(t *testing.T) {
	cfg := publishConfig()
	automations := &fakeAutomations{due: []domain.AutomationConfig{cfg}}
	w := newTestWorker(t, automations)

	handler := &fakeHandler{
		kind: domain.AutomationAutoPublish,
		err:  domain.QuotaExceeded("jobs.auto_publish", "weekly publish", 1),
	}
	w.Register(handler)

	w.tick(context.Background(), time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	if handler.runs != 1 {
		t.Errorf("handler runs = %d, want 1", handler.runs)
	}
	if len(automations.marked) != 1 {
		t.Errorf("limited run must advance the schedule, marked = %v", automations.marked)
	}
}

func TestTickUnknownKindIsNotMarked(t *testing.T) {
	cfg := publishConfig()
	cfg.Kind = domain.AutomationAutoReply
	automations := &fakeAutomations{due: []domain.AutomationConfig{cfg}}
	w := newTestWorker(t, automations)

	// Only the publish handler is registered.
	w.Register(&fakeHandler{kind: domain.AutomationAutoPublish})

	w.tick(context.Background(), time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))

	if len(automations.marked) != 0 {
		t.Errorf("unhandled kind must not be marked, marked = %v", automations.marked)
	}
}

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jzx17/delaykit/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DELAYCTL_CONFIG", "")

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestWaitCmd(t *testing.T) {
	out, err := run(t, context.Background(), "wait", "20ms", "--progress-interval", "5ms")
	require.NoError(t, err)
	assert.Contains(t, out, "Waiting 20ms")
	assert.Contains(t, out, "resolved after")
	assert.Contains(t, out, "remaining")
}

func TestWaitCmd_NoProgress(t *testing.T) {
	out, err := run(t, context.Background(), "wait", "10ms", "--progress-interval", "0")
	require.NoError(t, err)
	assert.NotContains(t, out, "remaining")
}

func TestWaitCmd_CancelAfter(t *testing.T) {
	begin := time.Now()
	out, err := run(t, context.Background(), "wait", "1h", "--cancel-after", "20ms")

	require.ErrorIs(t, err, types.ErrCancelled)
	assert.Less(t, time.Since(begin), time.Second)
	assert.Contains(t, out, "delay was cancelled: no result within 20ms")
}

func TestWaitCmd_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	out, err := run(t, ctx, "wait", "1h")
	require.ErrorIs(t, err, types.ErrCancelled)
	assert.Contains(t, out, "delay was cancelled: interrupted")
}

func TestRetryCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "default multiplier", args: []string{"retry", "5ms", "2"}, want: "waiting 20ms"},
		{name: "custom multiplier", args: []string{"retry", "5ms", "2", "--multiplier", "3"}, want: "waiting 45ms"},
		{name: "capped", args: []string{"retry", "5ms", "4", "--max-delay", "15ms"}, want: "waiting 15ms"},
		{name: "attempt zero", args: []string{"retry", "5ms", "0"}, want: "waiting 5ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, context.Background(), tt.args...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
			assert.Contains(t, out, "resolved after")
		})
	}
}

func TestSequenceCmd(t *testing.T) {
	begin := time.Now()
	out, err := run(t, context.Background(), "sequence", "10ms", "10ms", "10ms")

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(begin), 30*time.Millisecond)
	assert.Contains(t, out, "Running 3 stages, 30ms in total")
	assert.Contains(t, out, "resolved after")
}

func TestSequenceCmd_CancelAfter(t *testing.T) {
	out, err := run(t, context.Background(), "sequence", "10ms", "1h", "--cancel-after", "30ms")

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, out, "deadline exceeded")
}

func TestRandomCmd(t *testing.T) {
	out, err := run(t, context.Background(), "random", "10ms", "10ms")
	require.NoError(t, err)
	assert.Contains(t, out, "Sampled 10ms from [10ms, 10ms]")
	assert.Contains(t, out, "resolved after")
}

func TestRandomCmd_InvalidRange(t *testing.T) {
	out, err := run(t, context.Background(), "random", "20ms", "10ms")
	require.ErrorIs(t, err, types.ErrInvalidRange)
	assert.Contains(t, out, "invalid delay range")
}

func TestBackoffCmd(t *testing.T) {
	out, err := run(t, context.Background(), "backoff", "100ms", "--attempts", "4")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	for i, want := range []string{"100ms", "200ms", "400ms", "800ms"} {
		assert.Contains(t, lines[i], want)
	}
	assert.Contains(t, lines[3], "1.5s")
}

func TestBackoffCmd_Profile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delayctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("delay:\n  multiplier: 3\n  max_delay: 500ms\n"), 0o600))

	out, err := run(t, context.Background(), "backoff", "100ms", "-n", "3", "--config", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "300ms")
	assert.Contains(t, lines[2], "500ms")
}

func TestCommands_InvalidArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "bad duration", args: []string{"wait", "soon"}},
		{name: "negative duration", args: []string{"wait", "--", "-1s"}},
		{name: "bad attempt", args: []string{"retry", "10ms", "x"}},
		{name: "negative attempt", args: []string{"retry", "--", "10ms", "-1"}},
		{name: "non-positive multiplier", args: []string{"wait", "1ms", "--multiplier", "0"}},
		{name: "no attempts", args: []string{"backoff", "1ms", "--attempts", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, context.Background(), tt.args...)
			assert.ErrorIs(t, err, types.ErrInvalidInput)
		})
	}
}

func TestCommands_MissingProfile(t *testing.T) {
	_, err := run(t, context.Background(), "wait", "1ms", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, sub := range NewRootCmd().Commands() {
		names[sub.Name()] = true
		assert.NotEmpty(t, sub.Short, "%s has no help text", sub.Name())
	}
	for _, want := range []string{"wait", "retry", "sequence", "random", "backoff"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

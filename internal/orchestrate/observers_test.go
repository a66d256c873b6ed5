package orchestrate

import (
	"bytes"
	"errors"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleObserver_FormatsEventFields(t *testing.T) {
	var buf bytes.Buffer
	flags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})

	notify := ConsoleObserver()
	notify(Event{
		Type:    EventResourceApplied,
		Phase:   "namespaces",
		Subject: "Namespace/vault",
		Message: "applied",
	})
	notify(Event{
		Type:    EventPhaseFailed,
		Phase:   "metastore-db",
		Message: "checks timed out",
		Err:     errors.New("statefulset not ready"),
	})
	notify(Event{
		Type:    EventRunCompleted,
		Message: "11 succeeded, 1 skipped",
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "resource.applied namespaces Namespace/vault: applied", lines[0])
	assert.Equal(t, "phase.failed metastore-db: checks timed out (statefulset not ready)", lines[1])
	assert.Equal(t, "run.completed: 11 succeeded, 1 skipped", lines[2])
}

func TestLogrObserver_BridgesEvents(t *testing.T) {
	t.Parallel()

	var lines []string
	logger := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{})

	notify := LogrObserver(logger)
	notify(Event{
		Type:    EventResourceApplied,
		Phase:   "object-store",
		Subject: "Deployment/minio/minio",
		Message: "reapplied (drift)",
	})
	notify(Event{
		Type:    EventResourceFailed,
		Phase:   "object-store",
		Subject: "Deployment/minio/minio",
		Message: "convergence failed",
		Err:     errors.New("apply rejected"),
	})

	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"msg"="resource.applied"`)
	assert.Contains(t, lines[0], `"phase"="object-store"`)
	assert.Contains(t, lines[0], `"subject"="Deployment/minio/minio"`)
	assert.Contains(t, lines[0], `"detail"="reapplied (drift)"`)
	assert.Contains(t, lines[1], `"msg"="resource.failed"`)
	assert.Contains(t, lines[1], `"error"="apply rejected"`)
}

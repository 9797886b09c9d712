package startup

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDependency struct {
	name      string
	dependsOn []string
	startErrs int
	starts    int
	stops     int
	events    *[]string
}

func (f *fakeDependency) GetName() string     { return f.name }
func (f *fakeDependency) DependsOn() []string { return f.dependsOn }

func (f *fakeDependency) Start(ctx context.Context) error {
	f.starts++
	*f.events = append(*f.events, "start:"+f.name)
	if f.startErrs > 0 {
		f.startErrs--
		return errors.New("not ready")
	}
	return nil
}

func (f *fakeDependency) Stop(ctx context.Context) error {
	f.stops++
	*f.events = append(*f.events, "stop:"+f.name)
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestStartupOrder(t *testing.T) {
	var events []string
	db := &fakeDependency{name: "database", events: &events}
	consumer := &fakeDependency{name: "consumer", dependsOn: []string{"database"}, events: &events}

	s := NewStartup(testLogger(), 1)
	s.AddDependency(consumer)
	s.AddDependency(db)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start:database", "start:consumer"}, events)

	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"start:database", "start:consumer", "stop:consumer", "stop:database"}, events)
}

func TestStartupRetriesFailedDependency(t *testing.T) {
	var events []string
	db := &fakeDependency{name: "database", events: &events}
	consumer := &fakeDependency{name: "consumer", startErrs: 1, events: &events}

	s := NewStartup(testLogger(), 3)
	s.AddDependency(db)
	s.AddDependency(consumer)

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 1, db.starts, "already started dependencies are not restarted")
	assert.Equal(t, 2, consumer.starts)
}

func TestStartupExhaustsAttempts(t *testing.T) {
	var events []string
	db := &fakeDependency{name: "database", startErrs: 5, events: &events}

	s := NewStartup(testLogger(), 2)
	s.AddDependency(db)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, 2, db.starts)
}

func TestStartupUnregisteredParent(t *testing.T) {
	var events []string
	consumer := &fakeDependency{name: "consumer", dependsOn: []string{"database"}, events: &events}

	s := NewStartup(testLogger(), 1)
	s.AddDependency(consumer)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unregistered dependency "database"`)
	assert.Zero(t, consumer.starts)
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *ContainerConfig
		wantErr bool
	}{
		{
			name: "valid loop",
			config: &ContainerConfig{
				ID:       "c1",
				Type:     ContainerTypeLoop,
				Children: []string{"child-1"},
				Loop:     &LoopConfig{Count: 3},
			},
		},
		{
			name: "valid parallel",
			config: &ContainerConfig{
				ID:       "c1",
				Type:     ContainerTypeParallel,
				Children: []string{"a", "b"},
				Parallel: &ParallelConfig{MaxConcurrency: 2, Strategy: ParallelStrategyRace},
			},
		},
		{
			name: "missing id",
			config: &ContainerConfig{
				Type:     ContainerTypeLoop,
				Children: []string{"child-1"},
			},
			wantErr: true,
		},
		{
			// Unrecognized types pass structural validation; the executor
			// rejects them at run time.
			name: "unrecognized type",
			config: &ContainerConfig{
				ID:       "c1",
				Type:     ContainerType("pipeline"),
				Children: []string{"child-1"},
			},
		},
		{
			name: "no children",
			config: &ContainerConfig{
				ID:   "c1",
				Type: ContainerTypeLoop,
			},
			wantErr: true,
		},
		{
			name: "empty child id",
			config: &ContainerConfig{
				ID:       "c1",
				Type:     ContainerTypeLoop,
				Children: []string{""},
			},
			wantErr: true,
		},
		{
			name: "conditional without expression",
			config: &ContainerConfig{
				ID:       "c1",
				Type:     ContainerTypeConditional,
				Children: []string{"child-1"},
			},
			wantErr: true,
		},
		{
			name: "config variant mismatch",
			config: &ContainerConfig{
				ID:       "c1",
				Type:     ContainerTypeLoop,
				Children: []string{"child-1"},
				Batch:    &BatchConfig{Size: 2},
			},
			wantErr: true,
		},
		{
			name: "invalid parallel strategy",
			config: &ContainerConfig{
				ID:       "c1",
				Type:     ContainerTypeParallel,
				Children: []string{"child-1"},
				Parallel: &ParallelConfig{Strategy: ParallelStrategy("fastest")},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	var parallel *ParallelConfig

	assert.Equal(t, DefaultMaxConcurrency, parallel.Concurrency())
	assert.Equal(t, ParallelStrategyAll, parallel.ResultStrategy())
	assert.Equal(t, 3, (&ParallelConfig{MaxConcurrency: 3}).Concurrency())
	assert.Equal(t, ParallelStrategyAny, (&ParallelConfig{Strategy: ParallelStrategyAny}).ResultStrategy())

	var trycatch *TryCatchConfig

	assert.Equal(t, ErrorHandlingStop, trycatch.Policy())
	assert.Equal(t, DefaultRetryAttempts, trycatch.Attempts())
	assert.Equal(t, time.Duration(0), trycatch.RetryDelay())
	assert.Equal(t, 5, (&TryCatchConfig{RetryAttempts: 5}).Attempts())
	assert.Equal(t, 250*time.Millisecond, (&TryCatchConfig{RetryDelayMs: 250}).RetryDelay())

	var batch *BatchConfig

	assert.Equal(t, DefaultBatchSize, batch.EffectiveSize())
	assert.Equal(t, time.Duration(0), batch.Delay())
	assert.Equal(t, 4, (&BatchConfig{Size: 4}).EffectiveSize())

	assert.Equal(t, 100*time.Millisecond, (&LoopConfig{DelayMs: 100}).Delay())
}

func TestDefinitionValidate(t *testing.T) {
	config := &ContainerConfig{
		ID:       "c1",
		Type:     ContainerTypeLoop,
		Children: []string{"child-1"},
	}

	valid := &ContainerDefinition{
		Container: config,
		Children: []*ChildSpec{
			{ID: "child-1", Type: "log"},
		},
	}
	require.NoError(t, valid.Validate())
	assert.Equal(t, "c1", valid.ID())

	duplicate := &ContainerDefinition{
		Container: config,
		Children: []*ChildSpec{
			{ID: "child-1", Type: "log"},
			{ID: "child-1", Type: "transform"},
		},
	}
	assert.ErrorIs(t, duplicate.Validate(), ErrDuplicateChildID)

	unresolved := &ContainerDefinition{
		Container: config,
		Children: []*ChildSpec{
			{ID: "other", Type: "log"},
		},
	}
	assert.ErrorIs(t, unresolved.Validate(), ErrUnknownChildReference)
}

func TestDefinitionChildByID(t *testing.T) {
	definition := &ContainerDefinition{
		Container: &ContainerConfig{ID: "c1", Type: ContainerTypeLoop, Children: []string{"a"}},
		Children: []*ChildSpec{
			{ID: "a", Type: "log"},
			{ID: "b", Type: "transform"},
		},
	}

	spec, ok := definition.ChildByID("b")
	require.True(t, ok)
	assert.Equal(t, "transform", spec.Type)

	_, ok = definition.ChildByID("missing")
	assert.False(t, ok)
}

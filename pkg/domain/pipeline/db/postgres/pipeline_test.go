package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/chrisstore/store/pkg/conn/db/postgres/pool/testenv"
	"github.com/chrisstore/store/pkg/domain"
	kpgpipeline "github.com/chrisstore/store/pkg/domain/pipeline/db/postgres"
	"github.com/chrisstore/store/pkg/domain/pipetree"
	kpgplugin "github.com/chrisstore/store/pkg/domain/plugin/db/postgres"
	"github.com/chrisstore/store/pkg/utils/pointer"
	"github.com/chrisstore/store/pkg/utils/try"
)

func registerPlugin(ctx context.Context, t *testing.T, plugins interface {
	Register(context.Context, *domain.PluginSpec) (int, error)
	Get(context.Context, []int) (map[int]*domain.Plugin, error)
}) *domain.Plugin {
	t.Helper()
	id := try.To(plugins.Register(ctx, &domain.PluginSpec{
		Name:       "simpledsapp",
		PublicRepo: "https://github.com/FNNDSC/simpledsapp",
		Submitter:  "alice",
		Type:       domain.DataPlugin,
		Version:    "0.1",
		DockImage:  "fnndsc/pl-simpledsapp:0.1",
		ExecShell:  "python3",
		SelfPath:   "/usr/local/bin",
		SelfExec:   "simpledsapp",
		Limits:     domain.DefaultResourceLimits(),
		Parameters: []domain.PluginParameter{
			{Name: "dir", Type: domain.String, Optional: true, Flag: "--dir", Action: "store", UIExposed: true, Default: domain.StringValue("./")},
			{Name: "n", Type: domain.Integer, Flag: "-n", Action: "store", UIExposed: true},
		},
	})).OrFatal(t)
	return try.To(plugins.Get(ctx, []int{id})).OrFatal(t)[id]
}

func TestPipeline(t *testing.T) {
	ctx := context.Background()
	poolBroaker := testenv.NewPoolBroaker(ctx, t)
	pool := poolBroaker.GetPool(ctx, t)

	plugin := registerPlugin(ctx, t, kpgplugin.New(pool))
	plugins := map[int]*domain.Plugin{plugin.Id: plugin}

	tree := try.To(pipetree.BuildAndValidate([]pipetree.Node{
		{PluginId: plugin.Id},
		{
			PluginId: plugin.Id, PreviousIndex: pointer.Ref(0),
			ParameterDefaults: []pipetree.ParameterDefault{{Name: "n", Value: domain.IntValue(3)}},
		},
		{PluginId: plugin.Id, PreviousIndex: pointer.Ref(1)},
	})).OrFatal(t)

	testee := kpgpipeline.New(pool)

	pipelineId := try.To(testee.Register(ctx, &domain.PipelineSpec{
		Name: "chain", Locked: true, Owner: "alice",
	}, tree, plugins)).OrFatal(t)

	t.Run("pipings are a chain", func(t *testing.T) {
		pipings := try.To(testee.Pipings(ctx, pipelineId)).OrFatal(t)
		if len(pipings) != 3 {
			t.Fatalf("pipings: %+v", pipings)
		}
		if pipings[0].PreviousId != nil {
			t.Errorf("root has previous: %+v", pipings[0])
		}
		for i := 1; i < len(pipings); i++ {
			if pipings[i].PreviousId == nil || *pipings[i].PreviousId != pipings[i-1].Id {
				t.Errorf("piping #%d is not next of #%d: %+v", i, i-1, pipings)
			}
		}

		defaults := try.To(testee.Defaults(ctx, pipelineId)).OrFatal(t)
		exported := try.To(pipetree.FromPipings(pipings, defaults)).OrFatal(t)
		if exported.Size() != 3 {
			t.Errorf("exported tree: %+v", exported)
		}

		nulls := 0
		for _, ds := range defaults {
			if err := pipetree.CheckStoredDefaults(ds); err != nil {
				nulls += 1
			}
		}
		if nulls != 2 {
			t.Errorf("pipings with null defaults: %d (expected 2)", nulls)
		}
	})

	t.Run("defaults are saved idempotently", func(t *testing.T) {
		pipings := try.To(testee.Pipings(ctx, pipelineId)).OrFatal(t)
		overrides := []pipetree.ParameterDefault{{Name: "n", Value: domain.IntValue(5)}}

		first := try.To(testee.SaveDefaults(ctx, pipings[0], plugin, overrides)).OrFatal(t)
		second := try.To(testee.SaveDefaults(ctx, pipings[0], plugin, overrides)).OrFatal(t)
		if len(first) != 2 || len(second) != 2 {
			t.Fatalf("saved defaults: %+v, %+v", first, second)
		}
		for i := range first {
			if first[i] != second[i] {
				t.Errorf("re-saving changes defaults: %+v -> %+v", first[i], second[i])
			}
		}

		defaults := try.To(testee.Defaults(ctx, pipelineId)).OrFatal(t)
		if len(defaults[pipings[0].Id]) != 2 {
			t.Errorf("defaults of root piping: %+v", defaults[pipings[0].Id])
		}
	})

	t.Run("update changes fields and modification date", func(t *testing.T) {
		before := try.To(testee.Get(ctx, pipelineId)).OrFatal(t)
		after := try.To(testee.Update(ctx, pipelineId, domain.PipelineUpdate{
			Description: pointer.Ref("a chain of simpledsapp"),
		})).OrFatal(t)

		if after.Description != "a chain of simpledsapp" || after.Name != before.Name || after.Locked != before.Locked {
			t.Errorf("updated: %+v", after)
		}
		if after.ModifiedAt.Before(before.ModifiedAt) {
			t.Errorf("modification date: %s -> %s", before.ModifiedAt, after.ModifiedAt)
		}
	})

	t.Run("duplicated name is rejected", func(t *testing.T) {
		if ok := try.To(testee.ExistsName(ctx, "chain")).OrFatal(t); !ok {
			t.Error("ExistsName: false")
		}
		_, err := testee.Register(ctx, &domain.PipelineSpec{Name: "chain", Owner: "bob"}, tree, plugins)
		if !errors.Is(err, domain.ErrDuplicatePipeline) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("missing pipeline", func(t *testing.T) {
		if _, err := testee.Get(ctx, pipelineId+100); !errors.Is(err, domain.ErrMissing) {
			t.Errorf("unexpected error: %v", err)
		}
		if _, err := testee.GetPiping(ctx, 9999); !errors.Is(err, domain.ErrMissing) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

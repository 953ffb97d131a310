package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/chrisstore/store/pkg/domain"
	"github.com/chrisstore/store/pkg/domain/pipeline"
	pipelinemock "github.com/chrisstore/store/pkg/domain/pipeline/db/mock"
	"github.com/chrisstore/store/pkg/domain/pipetree"
	pluginmock "github.com/chrisstore/store/pkg/domain/plugin/db/mock"
	"github.com/chrisstore/store/pkg/utils/pointer"
	"github.com/chrisstore/store/pkg/utils/try"
)

// plugin 1: "dir" (string, default "./"), "n" (integer, no default)
// plugin 2: "flag" (boolean, default false)
// plugin 3: fs plugin
func storedPlugins() map[int]*domain.Plugin {
	return map[int]*domain.Plugin{
		1: {
			Id: 1, Version: "0.1",
			Meta: domain.PluginMeta{Id: 10, Name: "simpledsapp", Type: domain.DataPlugin},
			Parameters: []domain.PluginParameter{
				{Id: 101, Name: "dir", Type: domain.String, Optional: true, Default: domain.StringValue("./")},
				{Id: 102, Name: "n", Type: domain.Integer},
			},
		},
		2: {
			Id: 2, Version: "1.0",
			Meta: domain.PluginMeta{Id: 20, Name: "flagapp", Type: domain.DataPlugin},
			Parameters: []domain.PluginParameter{
				{Id: 201, Name: "flag", Type: domain.Boolean, Optional: true, Default: domain.BoolValue(false)},
			},
		},
		3: {
			Id: 3, Version: "0.1",
			Meta: domain.PluginMeta{Id: 30, Name: "simplefsapp", Type: domain.FSPlugin},
		},
	}
}

func pluginLookup() *pluginmock.PluginInterface {
	plugins := storedPlugins()
	m := pluginmock.NewPluginInterface()
	m.Impl.Get = func(ctx context.Context, ids []int) (map[int]*domain.Plugin, error) {
		ret := map[int]*domain.Plugin{}
		for _, id := range ids {
			if p, ok := plugins[id]; ok {
				ret[id] = p
			}
		}
		return ret, nil
	}
	m.Impl.GetByNameVersion = func(ctx context.Context, name, version string) (*domain.Plugin, error) {
		for _, p := range plugins {
			if p.Name() == name && p.Version == version {
				return p, nil
			}
		}
		return nil, fmt.Errorf("%w: %s %s", domain.ErrMissing, name, version)
	}
	return m
}

const exampleTree = `[
	{"plugin_id": 1, "previous_index": null},
	{"plugin_name": "flagapp", "plugin_version": "1.0", "previous_index": 0},
	{"plugin_id": 1, "previous_index": 1, "plugin_parameter_defaults": [{"name": "n", "default": 3}]}
]`

func TestCreate(t *testing.T) {
	t.Run("it creates a locked pipeline with its tree", func(t *testing.T) {
		ctx := context.Background()
		dbmock := pipelinemock.NewPipelineInterface()
		dbmock.Impl.ExistsName = func(context.Context, string) (bool, error) { return false, nil }
		dbmock.Impl.Register = func(context.Context, *domain.PipelineSpec, *pipetree.Tree, map[int]*domain.Plugin) (int, error) {
			return 7, nil
		}
		dbmock.Impl.Get = func(ctx context.Context, id int) (*domain.Pipeline, error) {
			return &domain.Pipeline{Id: id, Name: "chain", Locked: true, Owner: "alice"}, nil
		}

		testee := pipeline.New(dbmock, pluginLookup())
		p := try.To(testee.Create(ctx, pipeline.Creation{
			Name: "chain", Owner: "alice", PluginTree: []byte(exampleTree),
		})).OrFatal(t)
		if p.Id != 7 {
			t.Errorf("created: %+v", p)
		}

		if dbmock.Calls.Register.Times() != 1 {
			t.Fatalf("Register is called %d times", dbmock.Calls.Register.Times())
		}
		args := dbmock.Calls.Register[0]
		if !args.Spec.Locked || args.Spec.Owner != "alice" {
			t.Errorf("spec: %+v", args.Spec)
		}
		if args.Tree.RootIndex != 0 || args.Tree.Size() != 3 {
			t.Errorf("tree: %+v", args.Tree)
		}
		if _, ok := args.Plugins[2]; !ok {
			t.Errorf("plugin found by name is not passed: %+v", args.Plugins)
		}
	})

	type when struct {
		creation   pipeline.Creation
		nameExists bool
	}
	type then struct {
		err   error
		field string
	}

	for name, testcase := range map[string]struct {
		when when
		then then
	}{
		"blank name": {
			when: when{creation: pipeline.Creation{Name: "", PluginTree: []byte(exampleTree)}},
			then: then{err: domain.ErrInvalidPipeline, field: domain.FieldName},
		},
		"no plugin tree": {
			when: when{creation: pipeline.Creation{Name: "chain"}},
			then: then{err: domain.ErrInvalidTree, field: domain.FieldPluginTree},
		},
		"plugin not found": {
			when: when{creation: pipeline.Creation{
				Name: "chain", PluginTree: []byte(`[{"plugin_id": 99, "previous_index": null}]`),
			}},
			then: then{err: domain.ErrNotFound, field: domain.FieldPluginTree},
		},
		"fs plugin": {
			when: when{creation: pipeline.Creation{
				Name: "chain", PluginTree: []byte(`[{"plugin_id": 3, "previous_index": null}]`),
			}},
			then: then{err: domain.ErrInvalidTree, field: domain.FieldPluginTree},
		},
		"two roots": {
			when: when{creation: pipeline.Creation{
				Name: "chain", PluginTree: []byte(`[{"plugin_id": 1, "previous_index": null}, {"plugin_id": 2, "previous_index": null}]`),
			}},
			then: then{err: domain.ErrInvalidTree, field: domain.FieldPluginTree},
		},
		"unlocked with missing defaults": {
			when: when{creation: pipeline.Creation{
				Name: "chain", Locked: pointer.Ref(false), PluginTree: []byte(exampleTree),
			}},
			then: then{err: domain.ErrIncompleteDefaults, field: domain.FieldNonField},
		},
		"name exists": {
			when: when{
				creation:   pipeline.Creation{Name: "chain", PluginTree: []byte(exampleTree)},
				nameExists: true,
			},
			then: then{err: domain.ErrDuplicatePipeline, field: domain.FieldName},
		},
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			dbmock := pipelinemock.NewPipelineInterface()
			dbmock.Impl.ExistsName = func(context.Context, string) (bool, error) {
				return testcase.when.nameExists, nil
			}

			testee := pipeline.New(dbmock, pluginLookup())
			_, err := testee.Create(ctx, testcase.when.creation)

			if !errors.Is(err, testcase.then.err) {
				t.Fatalf("unexpected error: %v (expected %v)", err, testcase.then.err)
			}
			verr := new(domain.ValidationError)
			if !errors.As(err, &verr) {
				t.Fatalf("error is not a ValidationError: %v", err)
			}
			if verr.Field != testcase.then.field {
				t.Errorf("field: %s (expected %s)", verr.Field, testcase.then.field)
			}
			if dbmock.Calls.Register.Times() != 0 {
				t.Error("invalid pipeline is registered")
			}
		})
	}
}

func TestGet(t *testing.T) {
	stored := map[int]*domain.Pipeline{
		1: {Id: 1, Name: "open", Locked: false, Owner: "alice"},
		2: {Id: 2, Name: "private", Locked: true, Owner: "alice"},
	}
	dbmock := pipelinemock.NewPipelineInterface()
	dbmock.Impl.Get = func(ctx context.Context, id int) (*domain.Pipeline, error) {
		if p, ok := stored[id]; ok {
			return p, nil
		}
		return nil, fmt.Errorf("%w: pipeline %d", domain.ErrMissing, id)
	}
	testee := pipeline.New(dbmock, pluginLookup())

	for name, testcase := range map[string]struct {
		when struct {
			user string
			id   int
		}
		then error
	}{
		"unlocked pipeline is visible for anyone": {
			when: struct {
				user string
				id   int
			}{user: "bob", id: 1},
		},
		"locked pipeline is visible for its owner": {
			when: struct {
				user string
				id   int
			}{user: "alice", id: 2},
		},
		"locked pipeline is not visible for others": {
			when: struct {
				user string
				id   int
			}{user: "bob", id: 2},
			then: domain.ErrNotFound,
		},
		"missing pipeline": {
			when: struct {
				user string
				id   int
			}{user: "alice", id: 3},
			then: domain.ErrNotFound,
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := testee.Get(context.Background(), testcase.when.user, testcase.when.id)
			if testcase.then == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, testcase.then) {
				t.Errorf("unexpected error: %v (expected %v)", err, testcase.then)
			}
		})
	}

	t.Run("administrating user", func(t *testing.T) {
		admin := pipeline.New(dbmock, pluginLookup(), pipeline.WithAdmin("chris"))

		for name, testcase := range map[string]struct {
			when struct {
				user string
				id   int
			}
			then error
		}{
			"can see locked pipeline of others": {
				when: struct {
					user string
					id   int
				}{user: "chris", id: 2},
			},
			"others still can not see locked pipeline": {
				when: struct {
					user string
					id   int
				}{user: "bob", id: 2},
				then: domain.ErrNotFound,
			},
			"anonymous user is not the administrator": {
				when: struct {
					user string
					id   int
				}{user: "", id: 2},
				then: domain.ErrNotFound,
			},
		} {
			t.Run(name, func(t *testing.T) {
				_, err := admin.Get(context.Background(), testcase.when.user, testcase.when.id)
				if testcase.then == nil {
					if err != nil {
						t.Errorf("unexpected error: %v", err)
					}
					return
				}
				if !errors.Is(err, testcase.then) {
					t.Errorf("unexpected error: %v (expected %v)", err, testcase.then)
				}
			})
		}

		t.Run("can not update pipeline of others", func(t *testing.T) {
			_, err := admin.Update(context.Background(), "chris", 2, domain.PipelineUpdate{Description: pointer.Ref("mine")})
			if !errors.Is(err, domain.ErrForbidden) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	})
}

func TestUpdate(t *testing.T) {
	locked := func() *domain.Pipeline {
		return &domain.Pipeline{Id: 1, Name: "chain", Locked: true, Owner: "alice"}
	}

	t.Run("unlocking requires filled defaults", func(t *testing.T) {
		ctx := context.Background()
		dbmock := pipelinemock.NewPipelineInterface()
		dbmock.Impl.Get = func(context.Context, int) (*domain.Pipeline, error) { return locked(), nil }
		dbmock.Impl.Defaults = func(context.Context, int) (map[int][]domain.PipingDefault, error) {
			return map[int][]domain.PipingDefault{
				11: {{PipingId: 11, ParameterId: 101, Name: "dir", Type: domain.String, Value: domain.StringValue("./")}},
				12: {{PipingId: 12, ParameterId: 102, Name: "n", Type: domain.Integer, Value: nil}},
			}, nil
		}

		testee := pipeline.New(dbmock, pluginLookup())
		_, err := testee.Update(ctx, "alice", 1, domain.PipelineUpdate{Locked: pointer.Ref(false)})

		verr := new(domain.ValidationError)
		if !errors.As(err, &verr) || !errors.Is(err, domain.ErrIncompleteDefaults) || verr.Field != domain.FieldLocked {
			t.Errorf("unexpected error: %v", err)
		}
		if dbmock.Calls.Update.Times() != 0 {
			t.Error("pipeline is updated")
		}
	})

	t.Run("unlocking with filled defaults", func(t *testing.T) {
		ctx := context.Background()
		dbmock := pipelinemock.NewPipelineInterface()
		dbmock.Impl.Get = func(context.Context, int) (*domain.Pipeline, error) { return locked(), nil }
		dbmock.Impl.Defaults = func(context.Context, int) (map[int][]domain.PipingDefault, error) {
			return map[int][]domain.PipingDefault{
				12: {{PipingId: 12, ParameterId: 102, Name: "n", Type: domain.Integer, Value: domain.IntValue(3)}},
			}, nil
		}
		dbmock.Impl.Update = func(ctx context.Context, id int, u domain.PipelineUpdate) (*domain.Pipeline, error) {
			p := locked()
			p.Locked = *u.Locked
			return p, nil
		}

		testee := pipeline.New(dbmock, pluginLookup())
		p := try.To(testee.Update(ctx, "alice", 1, domain.PipelineUpdate{Locked: pointer.Ref(false)})).OrFatal(t)
		if p.Locked {
			t.Errorf("pipeline is still locked: %+v", p)
		}
	})

	t.Run("others can not update", func(t *testing.T) {
		ctx := context.Background()
		dbmock := pipelinemock.NewPipelineInterface()
		dbmock.Impl.Get = func(context.Context, int) (*domain.Pipeline, error) {
			p := locked()
			p.Locked = false
			return p, nil
		}

		testee := pipeline.New(dbmock, pluginLookup())
		_, err := testee.Update(ctx, "bob", 1, domain.PipelineUpdate{Description: pointer.Ref("mine")})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("renaming to used name", func(t *testing.T) {
		ctx := context.Background()
		dbmock := pipelinemock.NewPipelineInterface()
		dbmock.Impl.Get = func(context.Context, int) (*domain.Pipeline, error) { return locked(), nil }
		dbmock.Impl.ExistsName = func(context.Context, string) (bool, error) { return true, nil }

		testee := pipeline.New(dbmock, pluginLookup())
		_, err := testee.Update(ctx, "alice", 1, domain.PipelineUpdate{Name: pointer.Ref("other")})
		if !errors.Is(err, domain.ErrDuplicatePipeline) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestTree(t *testing.T) {
	ctx := context.Background()
	dbmock := pipelinemock.NewPipelineInterface()
	dbmock.Impl.Get = func(context.Context, int) (*domain.Pipeline, error) {
		return &domain.Pipeline{Id: 1, Locked: false, Owner: "alice"}, nil
	}
	dbmock.Impl.Pipings = func(context.Context, int) ([]domain.Piping, error) {
		return []domain.Piping{
			{Id: 11, PipelineId: 1, PluginId: 1},
			{Id: 12, PipelineId: 1, PluginId: 2, PreviousId: pointer.Ref(11)},
		}, nil
	}
	dbmock.Impl.Defaults = func(context.Context, int) (map[int][]domain.PipingDefault, error) {
		return map[int][]domain.PipingDefault{
			11: {{PipingId: 11, ParameterId: 102, Name: "n", Type: domain.Integer, Value: domain.IntValue(3)}},
		}, nil
	}

	testee := pipeline.New(dbmock, pluginLookup())
	tree := try.To(testee.Tree(ctx, "bob", 1)).OrFatal(t)

	if tree.RootIndex != 0 || tree.Size() != 2 {
		t.Fatalf("tree: %+v", tree)
	}
	root := tree.Nodes[0]
	if root.PluginId != 1 || len(root.ChildIndices) != 1 || root.ChildIndices[0] != 1 {
		t.Errorf("root: %+v", root)
	}
	if len(root.ParameterDefaults) != 1 || root.ParameterDefaults[0].Value != domain.IntValue(3) {
		t.Errorf("root defaults: %+v", root.ParameterDefaults)
	}
}

func TestUpdatePipingDefaults(t *testing.T) {
	newMock := func() *pipelinemock.PipelineInterface {
		dbmock := pipelinemock.NewPipelineInterface()
		dbmock.Impl.GetPiping = func(ctx context.Context, id int) (*domain.Piping, error) {
			return &domain.Piping{Id: id, PipelineId: 1, PluginId: 1}, nil
		}
		dbmock.Impl.Get = func(context.Context, int) (*domain.Pipeline, error) {
			return &domain.Pipeline{Id: 1, Locked: true, Owner: "alice"}, nil
		}
		dbmock.Impl.SaveDefaults = func(
			ctx context.Context, piping domain.Piping, plugin *domain.Plugin, overrides []pipetree.ParameterDefault,
		) ([]domain.PipingDefault, error) {
			return []domain.PipingDefault{}, nil
		}
		return dbmock
	}

	t.Run("valid overrides are saved", func(t *testing.T) {
		dbmock := newMock()
		testee := pipeline.New(dbmock, pluginLookup())
		try.To(testee.UpdatePipingDefaults(
			context.Background(), "alice", 11, []pipetree.Override{{Name: "n", Default: 5.0}},
		)).OrFatal(t)

		if dbmock.Calls.SaveDefaults.Times() != 1 {
			t.Fatalf("SaveDefaults is called %d times", dbmock.Calls.SaveDefaults.Times())
		}
		args := dbmock.Calls.SaveDefaults[0]
		if args.Piping.Id != 11 || args.Plugin.Id != 1 {
			t.Errorf("args: %+v", args)
		}
		if len(args.Overrides) != 1 || args.Overrides[0].Value != domain.IntValue(5) {
			t.Errorf("overrides: %+v", args.Overrides)
		}
	})

	t.Run("invalid overrides are rejected", func(t *testing.T) {
		dbmock := newMock()
		testee := pipeline.New(dbmock, pluginLookup())
		_, err := testee.UpdatePipingDefaults(
			context.Background(), "alice", 11, []pipetree.Override{{Name: "unknown", Default: 1.0}},
		)
		verr := new(domain.ValidationError)
		if !errors.As(err, &verr) || !errors.Is(err, domain.ErrInvalidParameterDefault) || verr.Field != domain.FieldDefaults {
			t.Errorf("unexpected error: %v", err)
		}
		if dbmock.Calls.SaveDefaults.Times() != 0 {
			t.Error("invalid defaults are saved")
		}
	})

	t.Run("others can not save", func(t *testing.T) {
		dbmock := newMock()
		testee := pipeline.New(dbmock, pluginLookup())
		_, err := testee.UpdatePipingDefaults(
			context.Background(), "bob", 11, []pipetree.Override{{Name: "n", Default: 1.0}},
		)
		// locked pipelines of others are not visible.
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

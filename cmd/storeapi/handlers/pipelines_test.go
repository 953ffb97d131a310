package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/chrisstore/store/cmd/storeapi/handlers"
	httptestutil "github.com/chrisstore/store/internal/testutils/http"
	apierr "github.com/chrisstore/store/pkg/api/types/errors"
	apipipelines "github.com/chrisstore/store/pkg/api/types/pipelines"
	"github.com/chrisstore/store/pkg/domain"
	"github.com/chrisstore/store/pkg/domain/pipeline"
	pipelinemock "github.com/chrisstore/store/pkg/domain/pipeline/db/mock"
	"github.com/chrisstore/store/pkg/domain/pipetree"
	pluginmock "github.com/chrisstore/store/pkg/domain/plugin/db/mock"
	"github.com/chrisstore/store/pkg/utils/pointer"
	"github.com/labstack/echo/v4"
)

// plugin 1: "dir" (string, default "./"), "n" (integer, no default)
// plugin 2: "flag" (boolean, default false)
func pluginLookup() *pluginmock.PluginInterface {
	plugins := map[int]*domain.Plugin{
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
	}
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

// pipelines: 1 is locked and owned by alice, 2 is unlocked and owned by alice.
func pipelineDB() *pipelinemock.PipelineInterface {
	dbmock := pipelinemock.NewPipelineInterface()
	dbmock.Impl.Get = func(ctx context.Context, id int) (*domain.Pipeline, error) {
		switch id {
		case 1:
			return &domain.Pipeline{Id: 1, Name: "locked", Locked: true, Owner: "alice"}, nil
		case 2:
			return &domain.Pipeline{Id: 2, Name: "unlocked", Locked: false, Owner: "alice"}, nil
		}
		return nil, fmt.Errorf("%w: pipeline %d", domain.ErrMissing, id)
	}
	return dbmock
}

func httpErrorOf(t *testing.T, err error) *echo.HTTPError {
	t.Helper()
	herr := new(echo.HTTPError)
	if !errors.As(err, &herr) {
		t.Fatalf("not an HTTPError: %+v", err)
	}
	return herr
}

func TestPipelineCreateHandler(t *testing.T) {
	t.Run("it creates a pipeline", func(t *testing.T) {
		dbmock := pipelineDB()
		dbmock.Impl.ExistsName = func(context.Context, string) (bool, error) { return false, nil }
		dbmock.Impl.Register = func(
			ctx context.Context, spec *domain.PipelineSpec, tree *pipetree.Tree, plugins map[int]*domain.Plugin,
		) (int, error) {
			if spec.Owner != "alice" || !spec.Locked || tree.Size() != 3 {
				t.Errorf("unexpected register: %+v, %+v", spec, tree)
			}
			return 1, nil
		}

		body := `{"name": "locked", "authors": "alice", "plugin_tree": ` + exampleTree + `}`
		e := echo.New()
		c, resp := httptestutil.Post(e, "/api/v1/pipelines/", strings.NewReader(body), httptestutil.JSON(), asUser("alice"))

		if err := handlers.PipelineCreateHandler(pipeline.New(dbmock, pluginLookup()), identity)(c); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		if resp.Code != http.StatusCreated {
			t.Errorf("status code: %d", resp.Code)
		}
		actual := apipipelines.Detail{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.Id != 1 || actual.Owner != "alice" || !actual.Locked {
			t.Errorf("unexpected response: %+v", actual)
		}
	})

	t.Run("it reports invalid tree with its field", func(t *testing.T) {
		dbmock := pipelineDB()
		body := `{"name": "broken", "plugin_tree": "[]"}`
		e := echo.New()
		c, _ := httptestutil.Post(e, "/api/v1/pipelines/", strings.NewReader(body), httptestutil.JSON(), asUser("alice"))

		err := handlers.PipelineCreateHandler(pipeline.New(dbmock, pluginLookup()), identity)(c)
		herr := httpErrorOf(t, err)
		if herr.Code != http.StatusBadRequest {
			t.Errorf("status code: %d", herr.Code)
		}
		if msg := herr.Message.(apierr.ErrorMessage); len(msg.Errors[domain.FieldPluginTree]) == 0 {
			t.Errorf("plugin_tree is not reported: %+v", msg)
		}
		if dbmock.Calls.Register.Times() != 0 {
			t.Error("invalid pipeline is registered")
		}
	})
}

func TestGetPipelineHandler(t *testing.T) {
	type when struct {
		user       string
		pipelineId string
	}
	for name, testcase := range map[string]struct {
		when when
		then int
	}{
		"owner can see a locked pipeline":         {when: when{user: "alice", pipelineId: "1"}, then: http.StatusOK},
		"others can not see a locked pipeline":    {when: when{user: "bob", pipelineId: "1"}, then: http.StatusNotFound},
		"anonymous can not see a locked pipeline": {when: when{user: "", pipelineId: "1"}, then: http.StatusNotFound},
		"anonymous can see an unlocked pipeline":  {when: when{user: "", pipelineId: "2"}, then: http.StatusOK},
		"unknown pipeline is not found":           {when: when{user: "alice", pipelineId: "3"}, then: http.StatusNotFound},
	} {
		t.Run(name, func(t *testing.T) {
			opts := []httptestutil.RequestOption{}
			if testcase.when.user != "" {
				opts = append(opts, asUser(testcase.when.user))
			}
			e := echo.New()
			c, resp := httptestutil.Get(e, "/api/v1/pipelines/"+testcase.when.pipelineId+"/", opts...)
			httptestutil.WithParams(map[string]string{"pipelineId": testcase.when.pipelineId})(c)

			testee := handlers.GetPipelineHandler(pipeline.New(pipelineDB(), pluginLookup()), identity, "pipelineId")
			err := testee(c)
			if testcase.then == http.StatusOK {
				if err != nil {
					t.Fatalf("unexpected error: %+v", err)
				}
				if resp.Code != http.StatusOK {
					t.Errorf("status code: %d", resp.Code)
				}
				return
			}
			if !Status(testcase.then)(err) {
				t.Errorf("unexpected error: %+v", err)
			}
		})
	}
}

func TestPipelineUpdateHandler(t *testing.T) {
	t.Run("owner can rename a pipeline", func(t *testing.T) {
		dbmock := pipelineDB()
		dbmock.Impl.ExistsName = func(context.Context, string) (bool, error) { return false, nil }
		dbmock.Impl.Update = func(ctx context.Context, id int, update domain.PipelineUpdate) (*domain.Pipeline, error) {
			return &domain.Pipeline{Id: id, Name: *update.Name, Locked: false, Owner: "alice"}, nil
		}

		e := echo.New()
		c, resp := httptestutil.Put(
			e, "/api/v1/pipelines/2/", strings.NewReader(`{"name": "renamed"}`),
			httptestutil.JSON(), asUser("alice"),
		)
		httptestutil.WithParams(map[string]string{"pipelineId": "2"})(c)

		testee := handlers.PipelineUpdateHandler(pipeline.New(dbmock, pluginLookup()), identity, "pipelineId")
		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		actual := apipipelines.Detail{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.Name != "renamed" {
			t.Errorf("unexpected response: %+v", actual)
		}
		if args := dbmock.Calls.Update; len(args) != 1 || args[0].Update.Locked != nil {
			t.Errorf("unexpected update: %+v", args)
		}
	})

	t.Run("others can not update an unlocked pipeline", func(t *testing.T) {
		dbmock := pipelineDB()
		e := echo.New()
		c, _ := httptestutil.Put(
			e, "/api/v1/pipelines/2/", strings.NewReader(`{"locked": true}`),
			httptestutil.JSON(), asUser("bob"),
		)
		httptestutil.WithParams(map[string]string{"pipelineId": "2"})(c)

		testee := handlers.PipelineUpdateHandler(pipeline.New(dbmock, pluginLookup()), identity, "pipelineId")
		if err := testee(c); !Status(http.StatusForbidden)(err) {
			t.Errorf("unexpected error: %+v", err)
		}
		if dbmock.Calls.Update.Times() != 0 {
			t.Error("pipeline is updated")
		}
	})
}

func TestPipelineTreeHandler(t *testing.T) {
	dbmock := pipelineDB()
	dbmock.Impl.Pipings = func(ctx context.Context, pipelineId int) ([]domain.Piping, error) {
		return []domain.Piping{
			{Id: 11, PipelineId: pipelineId, PluginId: 1},
			{Id: 12, PipelineId: pipelineId, PluginId: 2, PreviousId: pointer.Ref(11)},
		}, nil
	}
	dbmock.Impl.Defaults = func(ctx context.Context, pipelineId int) (map[int][]domain.PipingDefault, error) {
		return map[int][]domain.PipingDefault{
			11: {
				{PipingId: 11, ParameterId: 101, Name: "dir", Type: domain.String, Value: domain.StringValue("./")},
				{PipingId: 11, ParameterId: 102, Name: "n", Type: domain.Integer, Value: domain.IntValue(3)},
			},
			12: {{PipingId: 12, ParameterId: 201, Name: "flag", Type: domain.Boolean, Value: domain.BoolValue(false)}},
		}, nil
	}

	e := echo.New()
	c, resp := httptestutil.Get(e, "/api/v1/pipelines/2/tree/")
	httptestutil.WithParams(map[string]string{"pipelineId": "2"})(c)

	testee := handlers.PipelineTreeHandler(pipeline.New(dbmock, pluginLookup()), identity, "pipelineId")
	if err := testee(c); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}

	actual := apipipelines.Tree{}
	if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
		t.Fatal(err)
	}
	expected := apipipelines.Tree{
		RootIndex: 0,
		Nodes: []apipipelines.TreeNode{
			{
				PluginId: 1,
				ParameterDefaults: []apipipelines.ParameterDefault{
					{Name: "dir", Default: "./"},
					{Name: "n", Default: float64(3)},
				},
				ChildIndices: []int{1},
			},
			{
				PluginId:          2,
				ParameterDefaults: []apipipelines.ParameterDefault{{Name: "flag", Default: false}},
				ChildIndices:      []int{},
			},
		},
	}
	if !actual.Equal(expected) {
		t.Errorf("unmatch:\n===actual===\n%+v\n===expected===\n%+v", actual, expected)
	}
}

func TestBuildTreeHandler(t *testing.T) {
	e := echo.New()
	c, resp := httptestutil.Post(
		e, "/api/v1/pipelines/tree/", strings.NewReader(`{"plugin_tree": `+exampleTree+`}`),
		httptestutil.JSON(),
	)

	dbmock := pipelineDB()
	if err := handlers.BuildTreeHandler(pipeline.New(dbmock, pluginLookup()))(c); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}

	actual := apipipelines.Tree{}
	if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
		t.Fatal(err)
	}
	if actual.RootIndex != 0 || len(actual.Nodes) != 3 {
		t.Errorf("unexpected tree: %+v", actual)
	}
	if dbmock.Calls.Register.Times() != 0 {
		t.Error("tree is stored")
	}
}

func TestPipingDefaultsHandler(t *testing.T) {
	newMock := func() *pipelinemock.PipelineInterface {
		dbmock := pipelineDB()
		dbmock.Impl.GetPiping = func(ctx context.Context, id int) (*domain.Piping, error) {
			return &domain.Piping{Id: id, PipelineId: 1, PluginId: 1}, nil
		}
		dbmock.Impl.SaveDefaults = func(
			ctx context.Context, piping domain.Piping, plugin *domain.Plugin, overrides []pipetree.ParameterDefault,
		) ([]domain.PipingDefault, error) {
			return []domain.PipingDefault{
				{PipingId: piping.Id, ParameterId: 101, Name: "dir", Type: domain.String, Value: domain.StringValue("./")},
				{PipingId: piping.Id, ParameterId: 102, Name: "n", Type: domain.Integer, Value: overrides[0].Value},
			}, nil
		}
		return dbmock
	}

	t.Run("owner can re-save defaults", func(t *testing.T) {
		dbmock := newMock()
		e := echo.New()
		c, resp := httptestutil.Put(
			e, "/api/v1/pipelines/pipings/11/defaults/",
			strings.NewReader(`{"plugin_parameter_defaults": [{"name": "n", "default": 5}]}`),
			httptestutil.JSON(), asUser("alice"),
		)
		httptestutil.WithParams(map[string]string{"pipingId": "11"})(c)

		testee := handlers.PipingDefaultsHandler(pipeline.New(dbmock, pluginLookup()), identity, "pipingId")
		if err := testee(c); err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		actual := []apipipelines.PipingDefault{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if len(actual) != 2 || actual[1].Name != "n" || actual[1].Value != float64(5) || actual[1].Type != "integer" {
			t.Errorf("unexpected response: %+v", actual)
		}
	})

	type when struct {
		user string
		body string
	}
	for name, testcase := range map[string]struct {
		when when
		then int
	}{
		"override without default": {
			when: when{user: "alice", body: `{"plugin_parameter_defaults": [{"name": "n"}]}`},
			then: http.StatusBadRequest,
		},
		"unknown parameter": {
			when: when{user: "alice", body: `{"plugin_parameter_defaults": [{"name": "unknown", "default": 1}]}`},
			then: http.StatusBadRequest,
		},
		"anonymous": {
			when: when{user: "", body: `{"plugin_parameter_defaults": [{"name": "n", "default": 1}]}`},
			then: http.StatusUnauthorized,
		},
	} {
		t.Run("it rejects "+name, func(t *testing.T) {
			dbmock := newMock()
			opts := []httptestutil.RequestOption{httptestutil.JSON()}
			if testcase.when.user != "" {
				opts = append(opts, asUser(testcase.when.user))
			}
			e := echo.New()
			c, _ := httptestutil.Put(
				e, "/api/v1/pipelines/pipings/11/defaults/", strings.NewReader(testcase.when.body), opts...,
			)
			httptestutil.WithParams(map[string]string{"pipingId": "11"})(c)

			testee := handlers.PipingDefaultsHandler(pipeline.New(dbmock, pluginLookup()), identity, "pipingId")
			if err := testee(c); !Status(testcase.then)(err) {
				t.Errorf("unexpected error: %+v", err)
			}
			if dbmock.Calls.SaveDefaults.Times() != 0 {
				t.Error("defaults are saved")
			}
		})
	}
}

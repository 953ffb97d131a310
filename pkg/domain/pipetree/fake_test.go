package pipetree_test

import (
	"context"
	"fmt"

	"github.com/chrisstore/store/pkg/domain"
)

// in-memory pipetree.Writer
type memoryWriter struct {
	pipings  []domain.Piping
	defaults []domain.PipingDefault
	updates  int
	nextId   int
}

func (m *memoryWriter) CreatePiping(_ context.Context, p domain.Piping) (*domain.Piping, error) {
	m.nextId += 1
	p.Id = m.nextId
	if p.PreviousId != nil {
		found := false
		for _, q := range m.pipings {
			if q.Id == *p.PreviousId {
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("previous piping %d is not created yet", *p.PreviousId)
		}
	}
	m.pipings = append(m.pipings, p)
	return &p, nil
}

func (m *memoryWriter) GetPipingDefaults(_ context.Context, pipingId int) ([]domain.PipingDefault, error) {
	ret := []domain.PipingDefault{}
	for _, d := range m.defaults {
		if d.PipingId == pipingId {
			ret = append(ret, d)
		}
	}
	return ret, nil
}

func (m *memoryWriter) CreatePipingDefault(_ context.Context, d domain.PipingDefault) error {
	for _, e := range m.defaults {
		if e.PipingId == d.PipingId && e.ParameterId == d.ParameterId {
			return fmt.Errorf("duplicated default: (%d, %d)", d.PipingId, d.ParameterId)
		}
	}
	m.defaults = append(m.defaults, d)
	return nil
}

func (m *memoryWriter) UpdatePipingDefault(_ context.Context, d domain.PipingDefault) error {
	for i, e := range m.defaults {
		if e.PipingId == d.PipingId && e.ParameterId == d.ParameterId {
			m.defaults[i].Value = d.Value
			m.updates += 1
			return nil
		}
	}
	return fmt.Errorf("default (%d, %d) is not found", d.PipingId, d.ParameterId)
}

func (m *memoryWriter) defaultOf(pipingId int, name string) (domain.PipingDefault, bool) {
	for _, d := range m.defaults {
		if d.PipingId == pipingId && d.Name == name {
			return d, true
		}
	}
	return domain.PipingDefault{}, false
}

// in-memory pipetree.PluginLookup
type memoryLookup map[int]*domain.Plugin

func (m memoryLookup) Get(_ context.Context, ids []int) (map[int]*domain.Plugin, error) {
	ret := map[int]*domain.Plugin{}
	for _, id := range ids {
		if p, ok := m[id]; ok {
			ret[id] = p
		}
	}
	return ret, nil
}

func (m memoryLookup) GetByNameVersion(_ context.Context, name, version string) (*domain.Plugin, error) {
	for _, p := range m {
		if p.Name() == name && p.Version == version {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: plugin %s (%s)", domain.ErrMissing, name, version)
}

// plugin 1: ds with "dir" (string, default "./") and "n" (integer, no default)
// plugin 2: ds with "flag" (boolean, default false)
// plugin 3: fs
func plugins() memoryLookup {
	return memoryLookup{
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

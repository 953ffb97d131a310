package pipelines

import (
	apipipelines "github.com/chrisstore/store/pkg/api/types/pipelines"
	"github.com/chrisstore/store/pkg/domain"
	"github.com/chrisstore/store/pkg/domain/pipeline"
	"github.com/chrisstore/store/pkg/domain/pipetree"
	"github.com/chrisstore/store/pkg/utils"
)

func ComposeDetail(p domain.Pipeline) apipipelines.Detail {
	return apipipelines.Detail{
		Id:               p.Id,
		Name:             p.Name,
		Locked:           p.Locked,
		Authors:          p.Authors,
		Category:         p.Category,
		Description:      p.Description,
		Owner:            p.Owner,
		CreationDate:     p.CreatedAt,
		ModificationDate: p.ModifiedAt,
	}
}

func ComposeParameterDefault(d pipetree.ParameterDefault) apipipelines.ParameterDefault {
	return apipipelines.ParameterDefault{Name: d.Name, Default: domain.AnyOf(d.Value)}
}

func ComposeTreeNode(n pipetree.TreeNode) apipipelines.TreeNode {
	children := n.ChildIndices
	if children == nil {
		children = []int{}
	}
	return apipipelines.TreeNode{
		PluginId:          n.PluginId,
		ParameterDefaults: utils.Map(n.ParameterDefaults, ComposeParameterDefault),
		ChildIndices:      children,
	}
}

func ComposeTree(t pipetree.Tree) apipipelines.Tree {
	return apipipelines.Tree{
		RootIndex: t.RootIndex,
		Nodes:     utils.Map(t.Nodes, ComposeTreeNode),
	}
}

func ComposePipingDefault(d domain.PipingDefault) apipipelines.PipingDefault {
	return apipipelines.PipingDefault{
		PipingId:    d.PipingId,
		ParameterId: d.ParameterId,
		Name:        d.Name,
		Type:        string(d.Type),
		Value:       domain.AnyOf(d.Value),
	}
}

// ParseCreation converts a creation request from the user.
func ParseCreation(req apipipelines.Creation, owner string) pipeline.Creation {
	var tree []byte
	if len(req.PluginTree) != 0 && string(req.PluginTree) != "null" {
		tree = []byte(req.PluginTree)
	}
	return pipeline.Creation{
		Name:        req.Name,
		Authors:     req.Authors,
		Category:    req.Category,
		Description: req.Description,
		Locked:      req.Locked,
		Owner:       owner,
		PluginTree:  tree,
	}
}

func ParseUpdate(req apipipelines.Update) domain.PipelineUpdate {
	return domain.PipelineUpdate{
		Name:        req.Name,
		Locked:      req.Locked,
		Authors:     req.Authors,
		Category:    req.Category,
		Description: req.Description,
	}
}

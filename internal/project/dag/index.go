package dag

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"knox/internal/project"
)

// NodeID is a dense index of a module inside one ModuleIndex.
type NodeID uint32

type ModuleIndex struct {
	IDToModule []project.ModuleID
	ModuleToID map[project.ModuleID]NodeID
}

// BuildIndex collects every module mentioned by metas (declared or imported),
// orders them with project.Compare and assigns NodeIDs in that order.
func BuildIndex(metas []project.ModuleMeta) ModuleIndex {
	uniq := make(map[project.ModuleID]struct{}, len(metas))
	for _, meta := range metas {
		if !meta.ID.IsZero() {
			uniq[meta.ID] = struct{}{}
		}
		for _, dep := range meta.Imports {
			if dep.Target.IsZero() {
				continue
			}
			uniq[dep.Target] = struct{}{}
		}
	}

	mods := make([]project.ModuleID, 0, len(uniq))
	for m := range uniq {
		mods = append(mods, m)
	}
	slices.SortFunc(mods, project.Compare)

	toID := make(map[project.ModuleID]NodeID, len(mods))
	for i, m := range mods {
		toID[m] = nodeID(i)
	}
	return ModuleIndex{
		IDToModule: mods,
		ModuleToID: toID,
	}
}

// Len returns the number of indexed modules.
func (idx ModuleIndex) Len() int { return len(idx.IDToModule) }

// Module returns the ModuleID behind id.
func (idx ModuleIndex) Module(id NodeID) project.ModuleID {
	return idx.IDToModule[int(id)]
}

func nodeID(i int) NodeID {
	id, err := safecast.Conv[NodeID](i)
	if err != nil {
		panic(fmt.Errorf("module id overflow: %w", err))
	}
	return id
}

package repository

import "github.com/veyucu/fastits/internal/domain"

// TreeNode is one reconstructed node of a shipment hierarchy. For a
// container node Record is the container row and Units holds the unit rows
// sitting directly inside it. A serialized unit with no enclosing
// container appears as its own root node.
type TreeNode struct {
	Record   domain.HierarchyRecord
	Units    []domain.HierarchyRecord
	Children []*TreeNode
}

// BuildTree reconstructs the container forest from flat hierarchy rows
// using only (ContainerLabel, ParentContainerLabel) pairs. Rows whose
// parent label matches no container row in the input become roots. The
// input order is irrelevant.
func BuildTree(records []domain.HierarchyRecord) []*TreeNode {
	byLabel := make(map[string]*TreeNode)
	for _, rec := range records {
		if rec.IsContainer() && rec.ContainerLabel != nil {
			byLabel[*rec.ContainerLabel] = &TreeNode{Record: rec}
		}
	}

	var roots []*TreeNode
	for _, rec := range records {
		if rec.IsContainer() {
			continue
		}
		if rec.ContainerLabel != nil {
			if node, ok := byLabel[*rec.ContainerLabel]; ok {
				node.Units = append(node.Units, rec)
				continue
			}
		}
		roots = append(roots, &TreeNode{Record: rec})
	}

	for _, rec := range records {
		if !rec.IsContainer() || rec.ContainerLabel == nil {
			continue
		}
		node := byLabel[*rec.ContainerLabel]
		if rec.ParentContainerLabel != nil {
			if parent, ok := byLabel[*rec.ParentContainerLabel]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

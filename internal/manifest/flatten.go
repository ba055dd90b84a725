package manifest

import "github.com/veyucu/fastits/internal/domain"

// Flatten walks the manifest tree depth-first and emits one
// HierarchyRecord per container node and one per serialized unit. Rows
// carry no TransferID yet; the store stamps it at ingestion. Tree shape
// survives purely through (ContainerLabel, ParentContainerLabel) pairs, so
// emission order carries no meaning.
func Flatten(roots []Node) []domain.HierarchyRecord {
	var out []domain.HierarchyRecord
	for i := range roots {
		flattenNode(&out, &roots[i], nil, 0)
	}
	return out
}

func flattenNode(out *[]domain.HierarchyRecord, n *Node, parent *string, level int) {
	label := optional(n.ContainerLabel)
	if label != nil {
		*out = append(*out, domain.HierarchyRecord{
			ContainerLabel:       label,
			ParentContainerLabel: parent,
			ContainerType:        optional(n.ContainerType),
			ContainerLevel:       level,
		})
	}

	for _, g := range n.Groups {
		for _, serial := range g.SerialNumbers {
			sn := serial
			*out = append(*out, domain.HierarchyRecord{
				ContainerLabel:       label,
				ParentContainerLabel: parent,
				ContainerLevel:       level,
				ProductCode:          optional(g.ProductCode),
				SerialNumber:         &sn,
				LotNumber:            optional(g.LotNumber),
				ExpirationDate:       optional(g.ExpirationDate),
				ProductionDate:       optional(g.ProductionDate),
				PurchaseOrderNumber:  optional(g.PurchaseOrderNumber),
			})
		}
	}

	for i := range n.Children {
		flattenNode(out, &n.Children[i], label, level+1)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

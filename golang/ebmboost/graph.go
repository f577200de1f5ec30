package ebmboost

import (
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/tarstars/ebmcore/golang/ebmcore"
)

// RenderPairSplit draws a trained pair's segmented tensor as a small decision graph: root is the
// primary cut, its two children are the secondary cuts on either side, leaves are region
// predictions. Mirrors OneTree.DrawGraph/recurrentDraw, generalized from a binary CART tree (whose
// depth is unbounded) to the splitter's fixed two-level shape.
func RenderPairSplit(tensor *ebmcore.SegmentedTensor, combo *ebmcore.FeatureCombination) (*graphviz.Graphviz, *cgraph.Graph, error) {
	graphViz := graphviz.New()
	graph, err := graphViz.Graph()
	if err != nil {
		return nil, nil, err
	}

	if len(tensor.Dims) != 2 {
		return nil, nil, fmt.Errorf("ebmboost: RenderPairSplit: expected a 2D tensor, got %d axes", len(tensor.Dims))
	}

	primaryAxis := 0
	if len(tensor.Cuts[0]) == 0 && len(tensor.Cuts[1]) > 0 {
		primaryAxis = 1
	}
	secondaryAxis := 1 - primaryAxis

	root, err := graph.CreateNode("root")
	if err != nil {
		return nil, nil, err
	}
	root.Set("label", fmt.Sprintf("axis %d cuts %v", primaryAxis, tensor.Cuts[primaryAxis]))

	primaryRegionCount := len(tensor.Cuts[primaryAxis]) + 1
	for primaryRegion := 0; primaryRegion < primaryRegionCount; primaryRegion++ {
		childID := fmt.Sprintf("side-%d", primaryRegion)
		child, err := graph.CreateNode(childID)
		if err != nil {
			return nil, nil, err
		}
		child.Set("label", fmt.Sprintf("axis %d cuts %v", secondaryAxis, tensor.Cuts[secondaryAxis]))
		if _, err := graph.CreateEdge("", root, child); err != nil {
			return nil, nil, err
		}

		secondaryRegionCount := len(tensor.Cuts[secondaryAxis]) + 1
		for secondaryRegion := 0; secondaryRegion < secondaryRegionCount; secondaryRegion++ {
			point := [2]int{}
			point[primaryAxis] = regionRepresentative(tensor.Cuts[primaryAxis], primaryRegion, tensor.Dims[primaryAxis])
			point[secondaryAxis] = regionRepresentative(tensor.Cuts[secondaryAxis], secondaryRegion, tensor.Dims[secondaryAxis])

			leafID := fmt.Sprintf("leaf-%d-%d", primaryRegion, secondaryRegion)
			leaf, err := graph.CreateNode(leafID)
			if err != nil {
				return nil, nil, err
			}
			leaf.Set("label", fmt.Sprintf("%v", tensor.ValueAt(point[:])))
			leaf.Set("shape", "box")
			if _, err := graph.CreateEdge("", child, leaf); err != nil {
				return nil, nil, err
			}
		}
	}

	return graphViz, graph, nil
}

// regionRepresentative picks a raw state that lands in region index r of an axis with the given
// cuts, so ValueAt can read that region's prediction.
func regionRepresentative(cuts []int, region, dimSize int) int {
	if region == 0 {
		if len(cuts) == 0 {
			return 0
		}
		return cuts[0] - 1
	}
	if region < len(cuts) {
		return cuts[region] - 1
	}
	return dimSize - 1
}

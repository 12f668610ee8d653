package status

import (
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/fredericrous/qontrol/internal/api"
	"github.com/fredericrous/qontrol/internal/model"
)

// typeRule maps a model-number marker to a cloud platform. Rules are tried
// in order, so an earlier rule wins when a cluster matches several.
type typeRule struct {
	marker string // lower-case substring of the model number
	kind   model.ClusterKind
}

var cloudTypeRules = []typeRule{
	{marker: "azure", kind: model.KindAzure},
	{marker: "aws", kind: model.KindAWS},
}

// DetectClusterType classifies a cluster from its node models. Clusters
// matching no cloud rule are on-prem and carry their distinct models,
// sorted.
func DetectClusterType(nodes []api.Node) model.ClusterType {
	return detectClusterType(nodes, cloudTypeRules)
}

func detectClusterType(nodes []api.Node, rules []typeRule) model.ClusterType {
	for _, rule := range rules {
		for _, n := range nodes {
			if strings.Contains(strings.ToLower(n.ModelNumber), rule.marker) {
				return model.ClusterType{Kind: rule.kind}
			}
		}
	}

	models := sets.New[string]()
	for _, n := range nodes {
		if m := strings.TrimSpace(n.ModelNumber); m != "" {
			models.Insert(m)
		}
	}
	return model.OnPrem(sets.List(models))
}

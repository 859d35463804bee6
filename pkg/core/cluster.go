// pkg/core/cluster.go
package core

// SelectedClusterID is the sentinel cluster ID carried by the first group
// (in discovery order) that contains the focused point. At most one cluster
// per clustering pass holds it.
const SelectedClusterID = "selected-cluster"

// Cluster is one ephemeral marker group. Clusters are recomputed from
// scratch on every pass; an ID other than the sentinel has no continuity
// across passes.
type Cluster struct {
	ID        string     `json:"id"`
	Lon       float64    `json:"lon"`
	Lat       float64    `json:"lat"`
	Points    []GeoPoint `json:"points"`
	IsCluster bool       `json:"isCluster"`
}

// Contains reports whether the cluster holds a point with the given identity.
func (c Cluster) Contains(key PointKey) bool {
	for _, p := range c.Points {
		if p.Key() == key {
			return true
		}
	}
	return false
}

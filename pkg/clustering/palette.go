package clustering

import (
	"fmt"
	"time"
)

// Display palettes for generated clusters, indexed by cluster ordinal.
var (
	clusterColors = []string{
		"#3B82F6", // blue
		"#10B981", // emerald
		"#F59E0B", // amber
		"#EF4444", // red
		"#8B5CF6", // violet
		"#EC4899", // pink
		"#14B8A6", // teal
		"#F97316", // orange
	}

	clusterIcons = []string{
		"folder",
		"document",
		"chart",
		"mail",
		"tag",
		"book",
		"globe",
		"star",
	}
)

// ClusterColor returns the display color for the given cluster ordinal.
func ClusterColor(ordinal int) string {
	return clusterColors[ordinal%len(clusterColors)]
}

// ClusterIcon returns the display icon for the given cluster ordinal.
func ClusterIcon(ordinal int) string {
	return clusterIcons[ordinal%len(clusterIcons)]
}

// NewClusterID generates a cluster identifier from the creation time and
// the cluster's ordinal within its run.
func NewClusterID(at time.Time, ordinal int) string {
	return fmt.Sprintf("cluster-%d-%d", at.UnixMilli(), ordinal)
}

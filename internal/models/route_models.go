package models

// RouteLeg is one leg of a provider route.
type RouteLeg struct {
	DistanceMeters  int
	DurationSeconds int
	// DurationText is the provider formatted duration, empty when absent.
	DurationText string
}

// Route is a single route returned by a directions provider.
type Route struct {
	Legs             []RouteLeg
	OverviewPolyline string
}

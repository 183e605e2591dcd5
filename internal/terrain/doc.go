// Package terrain implements the terrain-feature detection and suitability
// scoring pipeline.
//
// The pipeline operates on a fixed 5x5 elevation grid sampled around a
// coordinate of interest and runs in four stages:
//
//  1. FeatureDetector scans the grid interior and classifies cells as
//     saddles, ridge spines, drainages, slope breaks, or benches, each with
//     a detection confidence and a type-specific suitability score.
//  2. CorridorAnalyzer promotes high-scoring features to directional travel
//     corridors.
//  3. FunnelIdentifier clusters feature positions with DBSCAN to find
//     convergence zones where several features reinforce one another.
//  4. SuitabilityScorer composes feature, corridor, funnel, and grid-wide
//     complexity metrics into a single 0-100 suitability score with
//     confidence statistics.
//
// Every stage is a pure function of the grid and its parameters: identical
// inputs produce bit-for-bit identical results. None of the stages perform
// I/O; elevation acquisition lives behind the provider interface in the
// elevation package.
package terrain

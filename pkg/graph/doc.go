// Package graph defines the section graph for morphmesh.
// A section graph is the set of planar polygon sections placed at Z levels
// plus the stitch links that name which pairs of sections get a surface
// between them. It is produced by evaluating a section script and consumed
// by the tessellator.
package graph

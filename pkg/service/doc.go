// Package service implements the publish and score operations on top of the
// ports: a Publisher that registers encoded models with the engine and stores
// their metadata, and a Scorer that runs feature values against them.
package service

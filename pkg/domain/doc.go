/*
Package domain contains the core models shared by the forestml codec and its services.

It describes trained decision trees as a read-only structure the codec can walk,
the model documents that bundle trees with their feature names, and the metadata
records that the publish and score services persist next to a registered model.
This package is kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Node / Tree: read-only view of an already trained binary decision tree.
  - ArrayTree: the parallel-array layout produced by tree trainers, adapted to Tree.
  - Model: an algorithm tag, the feature names and the ordered trees of an ensemble.
  - ModelMetadata: the record stored for every registered model.
  - FeatureValues: the ordered feature/value pairs of a scoring request.
*/
package domain

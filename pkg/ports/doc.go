/*
Package ports defines the driven ports (interfaces) used by the forestml services.

These interfaces decouple the publish and score services from the systems they talk to,
allowing the same services to run against Redis with the ML module in production and
against in-memory adapters in tests and local runs.

# Key Interfaces

  - MetadataStore: Persists and loads the metadata record of each registered model.
  - Engine: Executes protocol commands against the tree-ensemble scoring engine.
  - ExecutionLog: Records every scoring call made against a model.
  - DistributedLocker: Serializes publishes of the same model key across replicas.
*/
package ports

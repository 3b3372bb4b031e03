/*
Package forestml publishes trained decision-tree models to a Redis-ML scoring
engine and scores records against them.

Models arrive as trees in the parallel-array layout exported by tree trainers
(or built by hand with domain.Split and domain.Leaf). The codec turns each
tree into the text of one ML.FOREST.ADD command and each scoring request into
one ML.FOREST.RUN command; the engine itself does the arithmetic.

# Architecture

The packages follow a ports-and-adapters layout:

  - pkg/domain: trees, models, metadata and feature values.
  - pkg/codec: the ML.FOREST command encoder and parser.
  - pkg/service: the Publisher and Scorer.
  - pkg/ports: the Engine, MetadataStore, ExecutionLog and DistributedLocker contracts.
  - pkg/adapters: Redis, in-memory and file implementations, plus the HTTP and MCP servers.

# Usage

Encoding a single tree:

	tree := domain.NewTree(domain.Split(0, 4100,
		domain.Leaf(0, 1),
		domain.Leaf(1, 0)))

	forest, err := codec.NewEncoder().EncodeSingle(tree, []string{"LOAN"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(forest.Commands[0])
	// ML.FOREST.ADD tree-<uuid> 0 . NUMERIC LOAN 4100.0 .l LEAF 1 .r LEAF 0

Scoring goes through a Scorer bound to an engine and a metadata store; see
cmd/forestml for the complete wiring against Redis or the in-memory engine.
*/
package forestml

/*
Package codec translates trained decision trees into the text command protocol of
a tree-ensemble scoring engine, and scoring requests into the matching run command.

# Protocol

A model is registered with one add command per tree:

	ML.FOREST.ADD <key> <tree_index> <path> NUMERIC <feature> <threshold> ... <path> LEAF <class> 

Every node is addressed by its path: "." for the root followed by one "l" or "r"
per step down. Every clause is followed by a single space, including the last one.
Single trees are registered under a "tree-<uuid>" key, ensembles under "forest-<uuid>".

A record is scored with:

	ML.FOREST.RUN <key> <feature>:<value>,<feature>:<value>, <OUTPUT_TYPE>

The comma after the last pair is part of the wire format.

# Guarantees

Encoding is deterministic for a given tree and pure: nothing is logged, retried or
cached, and every call allocates its own output. Errors abort the whole call so a
partial command never reaches the engine. The only random input is the model key,
which can be replaced with WithKeyGenerator.
*/
package codec

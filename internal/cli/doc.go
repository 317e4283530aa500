// Package cli implements the reachgraph command line.
//
//	reachgraph run                 monitor endpoints (dashboard + HTTP API)
//	reachgraph probe [address...]  run one round and print the snapshot
//	reachgraph layout [address...] print the ring layout only
//	reachgraph config init|show    write or print the configuration
//	reachgraph doctor              check which probe methods work here
//	reachgraph version             print version information
package cli

// Package reconcile derives a single outcome for one clause group from the two
// parties' validated preferences.
//
// The procedure is pure and total. Variants ranked by both parties form the
// shared set. An empty shared set is a Red Light. A common first choice is taken
// as is, as is a lone shared variant. Otherwise each shared variant is scored as
//
//	S = rankA + rankB + |rankA - rankB|
//
// and the lowest score wins, preferring the smaller rank distance and then the
// smaller rank sum. Whatever tie survives those criteria is settled by a named,
// deterministic TieBreaker.
package reconcile

/*
Package concord reconciles two negotiating parties' preferences over alternative
wordings of contract clauses.

For every clause group of a contract template each party ranks the variants it
can accept and rejects the rest. Concord derives one mutually acceptable variant
per group, or flags the group with a Red Light when no such variant exists or a
party has not answered yet.

# Concept

The engine is a pure function over its input. The catalog of templates, the
storage of submissions and the display of results are external collaborators
reached through the interfaces in pkg/ports, so the same core runs behind the
CLI, the HTTP API and the MCP server.

# Key Features

  - Deterministic Outcomes: final ties are settled by a named strategy, never by chance.
  - Boundary Validation: untrusted submissions are checked and normalized before scoring.
  - Partial-Failure Isolation: an invalid or missing submission blocks only its own group.
  - Ordered Batches: groups are reconciled in parallel and reported in catalog order.

# Usage

	package main

	import (
		"context"
		"fmt"

		"github.com/aretw0/concord"
		"github.com/aretw0/concord/pkg/domain"
		"github.com/aretw0/concord/pkg/dsl"
	)

	func main() {
		tpl := dsl.Template("nda", "Mutual NDA").
			Group("liability", "Limitation of Liability").
			Variant("X", "Capped at fees paid").
			Variant("Y", "Capped at twice the fees paid").
			MustBuild()

		subs := domain.Submissions{}
		subs.Add(domain.PartyPreference{GroupID: "liability", Party: domain.PartyA, Ranking: domain.RankingFromOrder([]string{"X", "Y"})})
		subs.Add(domain.PartyPreference{GroupID: "liability", Party: domain.PartyB, Ranking: domain.RankingFromOrder([]string{"Y", "X"})})

		res := concord.New().ReconcileTemplate(context.Background(), tpl, subs)
		fmt.Println(res.Status, res.Groups[0].Outcome)
	}

# Scoring

Each variant ranked by both parties scores S = rankA + rankB + |rankA - rankB|.
A shared first choice or a single shared variant is selected without scoring.
*/
package concord

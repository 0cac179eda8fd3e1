/*
Package domain contains the core domain models of the Concord reconciliation engine.

It defines the clause catalog, the parties' preference submissions and the derived
reconciliation outcomes. This package is kept pure and free of external dependencies
like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Template / ClauseGroup / Variant: the read-only clause catalog.
  - PartyPreference: a raw submission (rejections plus a ranking) from one party for one group.
  - Preference: a validated, normalized submission with O(1) rank lookup.
  - Outcome: the per-group decision (AutoSelected, ScoredSelection or RedLight).
  - TemplateResult: the ordered outcomes of a template plus its overall Status.
*/
package domain

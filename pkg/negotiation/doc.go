/*
Package negotiation hosts live negotiations on top of the stateless engine.

A Manager accepts submissions one at a time, persists every version through a
PreferenceStore, and recomputes the template result from the latest version of
each party. Submissions to the same template are serialized with a local lock
and, when configured, a distributed lock shared between replicas. Subscribers
receive a ResultDiff whenever a submission changes the result.
*/
package negotiation

// Package match links stations across catalogs.
//
// Three operations are provided, all pure over their inputs:
//
//   - [Join] pairs stations of two catalogs sharing an identifier and drops
//     pairs whose left station stopped reporting before a cutoff year.
//   - [Matcher] finds, for a query station, the geographically closest
//     station of a target catalog. [MatchAll] runs it for a whole catalog.
//   - [Link] chains a join with a nearest search from the joined right-hand
//     station, connecting three catalogs through a hub.
//
// Nearest searches are a linear scan; at catalog sizes (thousands of
// stations) that is fast enough and keeps the first-encountered tie-break
// trivially deterministic.
package match

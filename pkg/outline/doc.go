/*
Package outline parses declarative build plans and replays them onto a
canopy.Builder.

A plan is a YAML (or JSON) tree of sections. Each section carries a role,
an optional title, inline content, attributes, and optionally a hold handle
that keeps the built element out of every flush until the host releases it.
*/
package outline

/*
Package threads contains the concrete conversation definitions of the
hearth bot: onboarding, profile update, guild selection, contribution
reporting, points display, and community registration.

Each definition assembles a flow.Node tree out of step handlers. Steps
talk to the chat platform and the profile backend exclusively through the
ports interfaces, so every flow runs unchanged against the in-memory
adapters in tests.
*/
package threads

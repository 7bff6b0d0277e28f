// Package model defines the training collaborators: deterministic baseline
// models over the loaded datasets. Each collaborator follows the same
// contract, taking the shared inputs plus a Config and returning metrics,
// derived tables, and a serialized model. Collaborators hold no state and
// never touch storage; persisting what they return is the caller's job.
package model

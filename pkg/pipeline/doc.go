/*
Package pipeline moves clients between stages.

Service.MoveClientToStage is the one rule-governed mutation of a client: it
loads the client inside its organization, asks the client's stage graph whether
the move is legal, records a stage-moved timeline event, persists the change in
a single versioned write and then hands the target stage's automated actions to
the ActionDispatcher in the background. Action delivery never fails or reverses
a committed move.

BulkMove fans the same move out over many clients and collects per-client
failures instead of aborting.
*/
package pipeline
